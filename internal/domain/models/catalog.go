package models

import (
	"fmt"
	"strings"
)

// Site is a production location that files daily reports.
type Site struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// Activity is a catalog work item bound to its unit of measure.
type Activity struct {
	Name string `json:"name"`
	Unit string `json:"unit"`
}

var siteCatalog = []Site{
	{Code: "TCB-407", Label: "Casting Yard TCB-407"},
	{Code: "TCB-436", Label: "Casting Yard TCB-436"},
	{Code: "TCB-469", Label: "Casting Yard TCB-469"},
	{Code: "TCB-486", Label: "Casting Yard TCB-486"},
}

// The order of this list is the row order of the export matrix.
var activityCatalog = []Activity{
	{Name: "Segment Casting", Unit: "Nos"},
	{Name: "Segment Demolding", Unit: "Nos"},
	{Name: "Segment Curing", Unit: "Nos"},
	{Name: "Segment Transportation", Unit: "Nos"},
	{Name: "Quality Inspection", Unit: "Nos"},
	{Name: "Reinforcement Work", Unit: "Kg"},
	{Name: "Concrete Work", Unit: "Cu.m"},
	{Name: "Formwork Installation", Unit: "Sq.m"},
	{Name: "Formwork Removal", Unit: "Sq.m"},
	{Name: "Steel Fixing", Unit: "MT"},
}

// WeatherConditions lists the conditions offered on the entry form.
var WeatherConditions = []string{"Clear", "Cloudy", "Rainy", "Windy", "Hot", "Cold"}

// Sites returns a copy of the site catalog in canonical order.
func Sites() []Site {
	out := make([]Site, len(siteCatalog))
	copy(out, siteCatalog)
	return out
}

// SiteCodes returns the catalog site codes in canonical order.
func SiteCodes() []string {
	out := make([]string, 0, len(siteCatalog))
	for _, s := range siteCatalog {
		out = append(out, s.Code)
	}
	return out
}

// LookupSite finds a site by code.
func LookupSite(code string) (Site, bool) {
	for _, s := range siteCatalog {
		if s.Code == code {
			return s, true
		}
	}
	return Site{}, false
}

// Activities returns a copy of the activity catalog in canonical order.
func Activities() []Activity {
	out := make([]Activity, len(activityCatalog))
	copy(out, activityCatalog)
	return out
}

// LookupActivity finds an activity by name.
func LookupActivity(name string) (Activity, bool) {
	for _, a := range activityCatalog {
		if a.Name == name {
			return a, true
		}
	}
	return Activity{}, false
}

// ParseSiteList splits a comma separated list of site codes, checking each
// against the catalog. A list with no codes is an error.
func ParseSiteList(raw string) ([]string, error) {
	var sites []string
	for _, code := range strings.Split(raw, ",") {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		if _, ok := LookupSite(code); !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSite, code)
		}
		sites = append(sites, code)
	}
	if len(sites) == 0 {
		return nil, ErrNoSites
	}
	return sites, nil
}
