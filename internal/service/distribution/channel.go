package distribution

import (
	"context"

	"github.com/mamadbah2/dpr/internal/domain/models"
)

// Channel delivers one message with one attachment to one recipient.
//
// Send returns nil or an error classified with *models.DeliveryError.
// CheckCredentials returns a *models.ConfigurationError when the channel
// cannot authenticate at all, without contacting the remote side.
type Channel interface {
	Name() string
	CheckCredentials() error
	Send(ctx context.Context, msg models.OutboundMessage) error
}
