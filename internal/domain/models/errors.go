package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrReportNotFound is returned when no report exists for a (site, date) pair.
	ErrReportNotFound = errors.New("report not found")
	// ErrRecipientNotFound is returned when no recipient has the given email.
	ErrRecipientNotFound = errors.New("recipient not found")
	// ErrUnknownSite is returned for site codes outside the catalog.
	ErrUnknownSite = errors.New("unknown site")
	// ErrNoSites is returned when a site list names no site at all.
	ErrNoSites = errors.New("at least one site is required")
	// ErrMissingCredentials is wrapped by ConfigurationError when a delivery
	// channel has no credentials.
	ErrMissingCredentials = errors.New("missing delivery credentials")
)

// ValidationError lists every problem found in a save request.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid report: " + strings.Join(e.Problems, "; ")
}

// Add records a problem.
func (e *ValidationError) Add(format string, args ...any) {
	e.Problems = append(e.Problems, fmt.Sprintf(format, args...))
}

// OrNil returns e when it holds problems, otherwise nil.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Problems) == 0 {
		return nil
	}
	return e
}

// DataFetchError wraps a record store failure.
type DataFetchError struct {
	Op  string
	Err error
}

func (e *DataFetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Op, e.Err)
}

func (e *DataFetchError) Unwrap() error { return e.Err }

// ErrorClass classifies delivery failures for diagnosis.
type ErrorClass string

const (
	ErrorClassAuth      ErrorClass = "authentication"
	ErrorClassTransient ErrorClass = "transient"
	ErrorClassUnknown   ErrorClass = "unknown"
	// ErrorClassConfiguration marks recipients not attempted because the
	// channel had no credentials.
	ErrorClassConfiguration ErrorClass = "configuration"
)

// DeliveryError is a classified channel failure.
type DeliveryError struct {
	Class ErrorClass
	Err   error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery failed (%s): %v", e.Class, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// ClassOf returns the delivery class of err, or ErrorClassUnknown.
func ClassOf(err error) ErrorClass {
	var de *DeliveryError
	if errors.As(err, &de) && de.Class != "" {
		return de.Class
	}
	return ErrorClassUnknown
}

// ConfigurationError reports missing or invalid runtime configuration.
type ConfigurationError struct {
	Setting string
	Err     error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration %s: %v", e.Setting, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }
