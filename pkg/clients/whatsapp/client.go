package whatsapp

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/dpr/internal/config"
)

// Client exposes WhatsApp Cloud API operations used by the application.
type Client interface {
	SendTextMessage(ctx context.Context, req SendTextMessageRequest) (*SendMessageResponse, error)
	UploadMedia(ctx context.Context, req UploadMediaRequest) (string, error)
	SendDocument(ctx context.Context, req SendDocumentRequest) (*SendMessageResponse, error)
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient    *resty.Client
	phoneNumberID string
}

// NewClient builds a WhatsApp API client using the provided configuration values.
func NewClient(cfg config.WhatsAppConfig) *APIClient {
	base := strings.TrimSuffix(cfg.BaseURL, "/")

	restyClient := resty.New()
	restyClient.
		SetBaseURL(fmt.Sprintf("%s/%s", base, cfg.APIVersion)).
		SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.AccessToken)).
		SetTimeout(30 * time.Second)

	return &APIClient{
		httpClient:    restyClient,
		phoneNumberID: cfg.PhoneNumberID,
	}
}

// SendTextMessageRequest represents a simplified text message payload.
type SendTextMessageRequest struct {
	To         string
	Body       string
	PreviewURL bool
}

// UploadMediaRequest is a file to host on the Cloud API before sending it.
type UploadMediaRequest struct {
	Filename    string
	ContentType string
	Data        []byte
}

// SendDocumentRequest references previously uploaded media.
type SendDocumentRequest struct {
	To       string
	MediaID  string
	Filename string
	Caption  string
}

// SendMessageResponse mirrors the successful response from Meta.
type SendMessageResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

type uploadMediaResponse struct {
	ID string `json:"id"`
}

// apiError represents a WhatsApp Cloud API error payload.
type apiError struct {
	Error struct {
		Message      string `json:"message"`
		Type         string `json:"type"`
		Code         int    `json:"code"`
		ErrorSubcode int    `json:"error_subcode"`
		FBTraceID    string `json:"fbtrace_id"`
	} `json:"error"`
}

// APIError is a non-2xx answer from the Cloud API.
type APIError struct {
	StatusCode int
	Code       int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("whatsapp api error: status=%d, code=%d, message=%s", e.StatusCode, e.Code, e.Message)
}

func (c *APIClient) SendTextMessage(ctx context.Context, req SendTextMessageRequest) (*SendMessageResponse, error) {
	payload := map[string]any{
		"messaging_product": "whatsapp",
		"to":                req.To,
		"type":              "text",
		"text": map[string]any{
			"body":        req.Body,
			"preview_url": req.PreviewURL,
		},
	}
	return c.postMessage(ctx, payload)
}

// UploadMedia stores a file on the Cloud API and returns its media id.
func (c *APIClient) UploadMedia(ctx context.Context, req UploadMediaRequest) (string, error) {
	result := new(uploadMediaResponse)
	apiErr := new(apiError)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetFileReader("file", req.Filename, bytes.NewReader(req.Data)).
		SetMultipartFormData(map[string]string{
			"messaging_product": "whatsapp",
			"type":              req.ContentType,
		}).
		SetResult(result).
		SetError(apiErr).
		Post(fmt.Sprintf("%s/media", c.phoneNumberID))
	if err != nil {
		return "", fmt.Errorf("upload whatsapp media: %w", err)
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return "", toAPIError(resp.StatusCode(), apiErr)
	}
	return result.ID, nil
}

// SendDocument sends uploaded media as a document message.
func (c *APIClient) SendDocument(ctx context.Context, req SendDocumentRequest) (*SendMessageResponse, error) {
	payload := map[string]any{
		"messaging_product": "whatsapp",
		"to":                req.To,
		"type":              "document",
		"document": map[string]any{
			"id":       req.MediaID,
			"filename": req.Filename,
			"caption":  req.Caption,
		},
	}
	return c.postMessage(ctx, payload)
}

func (c *APIClient) postMessage(ctx context.Context, payload map[string]any) (*SendMessageResponse, error) {
	result := new(SendMessageResponse)
	apiErr := new(apiError)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		SetResult(result).
		SetError(apiErr).
		Post(fmt.Sprintf("%s/messages", c.phoneNumberID))
	if err != nil {
		return nil, fmt.Errorf("send whatsapp message: %w", err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		return nil, toAPIError(resp.StatusCode(), apiErr)
	}

	return result, nil
}

func toAPIError(status int, apiErr *apiError) *APIError {
	out := &APIError{StatusCode: status}
	if apiErr != nil {
		out.Code = apiErr.Error.Code
		out.Message = apiErr.Error.Message
	}
	return out
}
