// Package gmail implements the Mailbox port with the Gmail REST API.
package gmail

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/ericfisherdev/profilekeeper/internal/domain/model"
	"github.com/ericfisherdev/profilekeeper/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.Mailbox = (*Mailbox)(nil)

const user = "me"

// Credentials authorise offline access to a Gmail account.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// Validate returns a *model.ConfigError naming the first missing field.
func (c Credentials) Validate() error {
	switch {
	case c.ClientID == "":
		return &model.ConfigError{Field: "GMAIL_CLIENT_ID"}
	case c.ClientSecret == "":
		return &model.ConfigError{Field: "GMAIL_CLIENT_SECRET"}
	case c.RefreshToken == "":
		return &model.ConfigError{Field: "GMAIL_REFRESH_TOKEN"}
	}
	return nil
}

// Mailbox reads messages through the Gmail API with read-only scope.
type Mailbox struct {
	svc    *gmailapi.Service
	logger *slog.Logger
}

// New builds a Mailbox whose access tokens are minted from the refresh token
// on demand. ctx bounds token refreshes for the life of the Mailbox.
func New(ctx context.Context, creds Credentials, logger *slog.Logger) (*Mailbox, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	cfg := &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{gmailapi.GmailReadonlyScope},
	}
	ts := cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: creds.RefreshToken})

	svc, err := gmailapi.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	return NewWithService(svc, logger), nil
}

// NewWithService wraps an existing service. Tests point it at an httptest
// server via option.WithEndpoint.
func NewWithService(svc *gmailapi.Service, logger *slog.Logger) *Mailbox {
	return &Mailbox{svc: svc, logger: logger}
}

// ListMessages returns up to max matching messages. Gmail lists newest first.
func (m *Mailbox) ListMessages(ctx context.Context, q model.MailQuery, max int) ([]model.MailSummary, error) {
	query := searchQuery(q)

	call := m.svc.Users.Messages.List(user).Q(query).Context(ctx)
	if max > 0 {
		call = call.MaxResults(int64(max))
	}
	resp, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("gmail list %q: %w", query, err)
	}

	summaries := make([]model.MailSummary, 0, len(resp.Messages))
	for _, msg := range resp.Messages {
		summaries = append(summaries, model.MailSummary{ID: msg.Id, ReceivedAt: internalDate(msg.InternalDate)})
	}
	return summaries, nil
}

// GetMessage fetches the full payload and flattens its body tree depth-first.
func (m *Mailbox) GetMessage(ctx context.Context, id string) (model.MailMessage, error) {
	msg, err := m.svc.Users.Messages.Get(user, id).Format("full").Context(ctx).Do()
	if err != nil {
		return model.MailMessage{}, fmt.Errorf("gmail get %s: %w", id, err)
	}

	out := model.MailMessage{ID: msg.Id}
	flatten(msg.Payload, &out.Parts)
	return out, nil
}

// flatten appends every part with inline body data. Attachment bodies are
// referenced by id only and are skipped.
func flatten(p *gmailapi.MessagePart, parts *[]model.MailPart) {
	if p == nil {
		return
	}
	if p.Body != nil && p.Body.Data != "" {
		*parts = append(*parts, model.MailPart{
			MimeType: p.MimeType,
			Data:     p.Body.Data,
			Encoding: model.EncodingBase64URL,
		})
	}
	for _, child := range p.Parts {
		flatten(child, parts)
	}
}

// searchQuery renders q in Gmail search syntax. after: takes epoch seconds.
func searchQuery(q model.MailQuery) string {
	terms := []string{"in:inbox"}
	if q.UnreadOnly {
		terms = append(terms, "is:unread")
	}
	if q.From != "" {
		terms = append(terms, "from:"+q.From)
	}
	if !q.After.IsZero() {
		terms = append(terms, "after:"+strconv.FormatInt(q.After.Unix(), 10))
	}
	if q.Subject != "" {
		terms = append(terms, `subject:"`+strings.ReplaceAll(q.Subject, `"`, "")+`"`)
	}
	return strings.Join(terms, " ")
}

func internalDate(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
