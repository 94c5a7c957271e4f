package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/mamadbah2/dpr/internal/config"
	"github.com/mamadbah2/dpr/internal/domain/models"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	// Meta's code for an invalid or expired access token.
	codeInvalidToken = 190
)

var tagPattern = regexp.MustCompile(`<[^>]+>`)

// DocumentChannel delivers reports as WhatsApp documents to the recipient's
// phone number.
type DocumentChannel struct {
	client Client
	cfg    config.WhatsAppConfig
}

// NewDocumentChannel wraps client as a delivery channel.
func NewDocumentChannel(client Client, cfg config.WhatsAppConfig) *DocumentChannel {
	return &DocumentChannel{client: client, cfg: cfg}
}

// Name identifies the channel in logs.
func (c *DocumentChannel) Name() string { return config.ChannelWhatsApp }

// CheckCredentials reports the first missing WhatsApp setting.
func (c *DocumentChannel) CheckCredentials() error {
	if c.cfg.AccessToken == "" {
		return &models.ConfigurationError{Setting: "WHATSAPP_TOKEN", Err: models.ErrMissingCredentials}
	}
	if c.cfg.PhoneNumberID == "" {
		return &models.ConfigurationError{Setting: "WHATSAPP_PHONE_NUMBER_ID", Err: models.ErrMissingCredentials}
	}
	return nil
}

// Send uploads the attachment and sends it with the subject as caption.
// Messages without attachment go out as plain text.
func (c *DocumentChannel) Send(ctx context.Context, msg models.OutboundMessage) error {
	to := strings.TrimPrefix(strings.TrimSpace(msg.To.Phone), "+")
	if to == "" {
		return &models.DeliveryError{Class: models.ErrorClassUnknown, Err: fmt.Errorf("recipient %s has no phone number", msg.To.Email)}
	}

	if len(msg.Attachment) == 0 {
		_, err := c.client.SendTextMessage(ctx, SendTextMessageRequest{To: to, Body: msg.Subject + "\n\n" + plainText(msg.HTMLBody)})
		return classify(err)
	}

	mediaID, err := c.client.UploadMedia(ctx, UploadMediaRequest{
		Filename:    msg.AttachmentName,
		ContentType: xlsxContentType,
		Data:        msg.Attachment,
	})
	if err != nil {
		return classify(err)
	}

	_, err = c.client.SendDocument(ctx, SendDocumentRequest{
		To:       to,
		MediaID:  mediaID,
		Filename: msg.AttachmentName,
		Caption:  msg.Subject,
	})
	return classify(err)
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	class := models.ErrorClassTransient
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden || apiErr.Code == codeInvalidToken:
			class = models.ErrorClassAuth
		case apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= http.StatusInternalServerError:
			class = models.ErrorClassTransient
		default:
			class = models.ErrorClassUnknown
		}
	}
	return &models.DeliveryError{Class: class, Err: err}
}

func plainText(html string) string {
	return strings.Join(strings.Fields(tagPattern.ReplaceAllString(html, " ")), " ")
}
