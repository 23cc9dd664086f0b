// Package imapmail implements the Mailbox port over IMAP. The mailbox is
// opened read-only and bodies are fetched with BODY.PEEK[], so reading never
// changes flags.
package imapmail

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"

	"github.com/ericfisherdev/profilekeeper/internal/domain/model"
	"github.com/ericfisherdev/profilekeeper/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.Mailbox = (*Mailbox)(nil)

// maxPartBytes caps how much of one body part is kept.
const maxPartBytes = 4 << 20

// Config holds the IMAP account settings.
type Config struct {
	Addr     string // host:port, implicit TLS
	Username string
	Password string
	Folder   string // defaults to INBOX
}

// Mailbox reads messages from an IMAP folder. Each call opens its own
// connection.
type Mailbox struct {
	cfg    Config
	tls    *tls.Config
	logger *slog.Logger
}

// New validates cfg and returns a Mailbox. No connection is made until the
// first call.
func New(cfg Config, logger *slog.Logger) (*Mailbox, error) {
	if cfg.Addr == "" {
		return nil, &model.ConfigError{Field: "PROFILEKEEPER_IMAP_ADDR"}
	}
	if cfg.Username == "" {
		return nil, &model.ConfigError{Field: "PROFILEKEEPER_IMAP_USERNAME"}
	}
	if cfg.Password == "" {
		return nil, &model.ConfigError{Field: "PROFILEKEEPER_IMAP_PASSWORD"}
	}
	if cfg.Folder == "" {
		cfg.Folder = "INBOX"
	}

	host, _, err := net.SplitHostPort(cfg.Addr)
	if err != nil {
		return nil, &model.ConfigError{Field: "PROFILEKEEPER_IMAP_ADDR", Reason: err.Error()}
	}

	return &Mailbox{
		cfg:    cfg,
		tls:    &tls.Config{MinVersion: tls.VersionTLS12, ServerName: host},
		logger: logger,
	}, nil
}

// ListMessages returns up to max messages matching q, newest first.
func (m *Mailbox) ListMessages(ctx context.Context, q model.MailQuery, max int) ([]model.MailSummary, error) {
	c, done, err := m.open(ctx)
	if err != nil {
		return nil, err
	}
	defer done()

	data, err := c.UIDSearch(searchCriteria(q), nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("imap search: %w", err)
	}
	uids := data.AllUIDs()
	if len(uids) == 0 {
		return []model.MailSummary{}, nil
	}

	// SINCE has day granularity; the exact cut uses the internal date.
	msgs, err := c.Fetch(imap.UIDSetNum(uids...), &imap.FetchOptions{
		UID:          true,
		InternalDate: true,
	}).Collect()
	if err != nil {
		return nil, fmt.Errorf("imap fetch dates: %w", err)
	}

	summaries := make([]model.MailSummary, 0, len(msgs))
	for _, msg := range msgs {
		summaries = append(summaries, model.MailSummary{
			ID:         strconv.FormatUint(uint64(msg.UID), 10),
			ReceivedAt: msg.InternalDate,
		})
	}
	return newestAfter(summaries, q.After, max), nil
}

// GetMessage fetches the full message and returns its decoded leaf parts.
func (m *Mailbox) GetMessage(ctx context.Context, id string) (model.MailMessage, error) {
	uid, err := strconv.ParseUint(id, 10, 32)
	if err != nil {
		return model.MailMessage{}, fmt.Errorf("invalid imap message id %q: %w", id, err)
	}

	c, done, err := m.open(ctx)
	if err != nil {
		return model.MailMessage{}, err
	}
	defer done()

	section := &imap.FetchItemBodySection{Specifier: imap.PartSpecifierNone, Peek: true}
	msgs, err := c.Fetch(imap.UIDSetNum(imap.UID(uid)), &imap.FetchOptions{
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{section},
	}).Collect()
	if err != nil {
		return model.MailMessage{}, fmt.Errorf("imap fetch message %s: %w", id, err)
	}
	if len(msgs) == 0 {
		return model.MailMessage{}, fmt.Errorf("imap message %s not found", id)
	}

	raw := msgs[0].FindBodySection(section)
	if raw == nil {
		return model.MailMessage{}, fmt.Errorf("imap message %s has no body", id)
	}
	return parseMessage(id, raw)
}

// open dials, logs in, and selects the folder read-only. The returned func
// logs out and releases the connection.
func (m *Mailbox) open(ctx context.Context) (*imapclient.Client, func(), error) {
	c, err := imapclient.DialTLS(m.cfg.Addr, &imapclient.Options{TLSConfig: m.tls})
	if err != nil {
		return nil, nil, fmt.Errorf("imap dial %s: %w", m.cfg.Addr, err)
	}

	// The client has no context support; closing the connection unblocks
	// any pending command.
	stop := context.AfterFunc(ctx, func() { _ = c.Close() })
	abort := func() {
		stop()
		_ = c.Close()
	}

	if err := c.Login(m.cfg.Username, m.cfg.Password).Wait(); err != nil {
		abort()
		return nil, nil, fmt.Errorf("imap login: %w", err)
	}
	if _, err := c.Select(m.cfg.Folder, &imap.SelectOptions{ReadOnly: true}).Wait(); err != nil {
		abort()
		return nil, nil, fmt.Errorf("imap select %s: %w", m.cfg.Folder, err)
	}

	return c, func() {
		if err := c.Logout().Wait(); err != nil {
			m.logger.Debug("imap logout failed", "error", err)
		}
		abort()
	}, nil
}

// searchCriteria maps q onto an IMAP SEARCH.
func searchCriteria(q model.MailQuery) *imap.SearchCriteria {
	criteria := &imap.SearchCriteria{}
	if q.UnreadOnly {
		criteria.NotFlag = []imap.Flag{imap.FlagSeen}
	}
	if q.From != "" {
		criteria.Header = append(criteria.Header, imap.SearchCriteriaHeaderField{Key: "From", Value: q.From})
	}
	if q.Subject != "" {
		criteria.Header = append(criteria.Header, imap.SearchCriteriaHeaderField{Key: "Subject", Value: q.Subject})
	}
	if !q.After.IsZero() {
		criteria.Since = sinceDate(q.After)
	}
	return criteria
}

// sinceDate widens after to the start of the previous UTC day. SINCE compares
// dates only, in the server's timezone; newestAfter applies the exact cut.
func sinceDate(after time.Time) time.Time {
	y, m, d := after.UTC().Date()
	return time.Date(y, m, d-1, 0, 0, 0, 0, time.UTC)
}

// newestAfter drops messages received before after, sorts newest first, and
// keeps at most max.
func newestAfter(summaries []model.MailSummary, after time.Time, max int) []model.MailSummary {
	kept := summaries[:0]
	for _, s := range summaries {
		if after.IsZero() || !s.ReceivedAt.Before(after) {
			kept = append(kept, s)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].ReceivedAt.After(kept[j].ReceivedAt)
	})
	if max > 0 && len(kept) > max {
		kept = kept[:max]
	}
	return kept
}

// parseMessage decodes an RFC 5322 message into its inline text parts.
// Transfer encodings and charsets are undone here, so parts are identity
// encoded.
func parseMessage(id string, raw []byte) (model.MailMessage, error) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil && mr == nil {
		return model.MailMessage{}, fmt.Errorf("parse message %s: %w", id, err)
	}
	defer mr.Close()

	msg := model.MailMessage{ID: id}
	for {
		p, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if len(msg.Parts) > 0 {
				break
			}
			return model.MailMessage{}, fmt.Errorf("read parts of message %s: %w", id, err)
		}

		h, ok := p.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		ctype := "text/plain"
		if h.Get("Content-Type") != "" {
			if ctype, _, err = h.ContentType(); err != nil {
				continue
			}
		}
		if !strings.HasPrefix(ctype, "text/") {
			continue
		}

		body, err := io.ReadAll(io.LimitReader(p.Body, maxPartBytes))
		if err != nil {
			continue
		}
		msg.Parts = append(msg.Parts, model.MailPart{
			MimeType: ctype,
			Data:     string(body),
			Encoding: model.EncodingIdentity,
		})
	}
	return msg, nil
}
