package application

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ericfisherdev/profilekeeper/internal/domain/model"
	"github.com/ericfisherdev/profilekeeper/internal/domain/port/driven"
)

// OTPRetriever looks for a one-time code in the most recent unread message
// from the challenge sender. It is polled in a loop, so every failure is
// logged and reported as "no code" rather than returned.
type OTPRetriever struct {
	mailbox   driven.Mailbox
	extractor CodeExtractor
	clock     Clock
	logger    *slog.Logger
}

// NewOTPRetriever creates a retriever reading from mailbox.
func NewOTPRetriever(mailbox driven.Mailbox, extractor CodeExtractor, logger *slog.Logger, opts ...Option) *OTPRetriever {
	o := buildOptions(opts)
	return &OTPRetriever{
		mailbox:   mailbox,
		extractor: extractor,
		clock:     o.clock,
		logger:    logger,
	}
}

// FetchOTP returns the code from the newest qualifying message, or false when
// there is none yet. The mailbox is only read.
func (r *OTPRetriever) FetchOTP(ctx context.Context, challenge model.OTPChallenge) (string, bool) {
	if challenge.Sender == "" {
		r.logger.Error("otp lookup skipped: sender is empty")
		return "", false
	}

	query := model.MailQuery{
		From:       challenge.Sender,
		Subject:    challenge.Subject,
		UnreadOnly: true,
	}
	if challenge.Within > 0 {
		query.After = r.clock.Now().Add(-challenge.Within)
	}

	summaries, err := r.mailbox.ListMessages(ctx, query, 1)
	if err != nil {
		r.logger.Warn("otp mailbox query failed", "sender", challenge.Sender, "error", err)
		return "", false
	}
	if len(summaries) == 0 {
		r.logger.Debug("no unread otp mail yet", "sender", challenge.Sender, "within", challenge.Within)
		return "", false
	}

	msg, err := r.mailbox.GetMessage(ctx, summaries[0].ID)
	if err != nil {
		r.logger.Warn("otp message fetch failed", "message_id", summaries[0].ID, "error", err)
		return "", false
	}

	bodies := make([]string, 0, len(msg.Parts))
	parts := make([]model.MailPart, 0, len(msg.Parts))
	for i, part := range msg.Parts {
		body, err := decodePart(part)
		if err != nil {
			r.logger.Debug("otp message part undecodable", "message_id", msg.ID, "part", i, "error", err)
			continue
		}
		bodies = append(bodies, body)
		parts = append(parts, part)
	}

	chain, ok := r.extractor.(FirstMatch)
	if !ok {
		chain = FirstMatch{r.extractor}
	}
	if code, i, ok := chain.ExtractFirst(bodies); ok {
		r.logger.Info("otp found", "message_id", msg.ID, "mime_type", parts[i].MimeType)
		return code, true
	}

	r.logger.Warn("otp mail has no code", "message_id", msg.ID, "parts", len(msg.Parts))
	return "", false
}

// decodePart reverses the part's transport encoding. Padding and line breaks
// are tolerated in either base64 alphabet.
func decodePart(p model.MailPart) (string, error) {
	switch p.Encoding {
	case model.EncodingIdentity, "":
		return p.Data, nil
	case model.EncodingBase64URL, model.EncodingBase64:
		data := strings.TrimRight(stripLineBreaks(p.Data), "=")
		enc := base64.RawStdEncoding
		if p.Encoding == model.EncodingBase64URL {
			enc = base64.RawURLEncoding
		}
		b, err := enc.DecodeString(data)
		if err != nil {
			return "", fmt.Errorf("decode %s body: %w", p.Encoding, err)
		}
		return string(b), nil
	default:
		return "", fmt.Errorf("unsupported body encoding %q", p.Encoding)
	}
}

func stripLineBreaks(s string) string {
	return strings.NewReplacer("\r", "", "\n", "").Replace(s)
}
