package driven

import (
	"context"

	"github.com/ericfisherdev/profilekeeper/internal/domain/model"
)

// Mailbox defines the driven port for reading the inbox that receives OTP
// mail. Implementations must not change message state (no mark-read, no delete).
type Mailbox interface {
	// ListMessages returns up to max matching messages, newest first.
	ListMessages(ctx context.Context, q model.MailQuery, max int) ([]model.MailSummary, error)
	// GetMessage returns the full message with body parts in transport encoding.
	GetMessage(ctx context.Context, id string) (model.MailMessage, error)
}
