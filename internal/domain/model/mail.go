package model

import "time"

// BodyEncoding is the transport encoding of a MailPart's Data.
type BodyEncoding string

const (
	EncodingBase64URL BodyEncoding = "base64url" // Gmail API payloads.
	EncodingBase64    BodyEncoding = "base64"
	EncodingIdentity  BodyEncoding = "identity" // Already decoded.
)

// MailQuery selects candidate messages from a mailbox.
type MailQuery struct {
	From       string
	Subject    string
	After      time.Time
	UnreadOnly bool
}

// MailSummary identifies a message returned by a mailbox listing.
type MailSummary struct {
	ID         string
	ReceivedAt time.Time
}

// MailPart is one leaf of a message body, still in its transport encoding.
type MailPart struct {
	MimeType string
	Data     string
	Encoding BodyEncoding
}

// MailMessage is a full message with its body leaves in document order.
type MailMessage struct {
	ID    string
	Parts []MailPart
}
