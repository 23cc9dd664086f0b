package model

import "time"

// OTPChallenge describes which mailbox message may carry the one-time code
// for the current login attempt.
type OTPChallenge struct {
	Sender  string
	Subject string
	// Within bounds how old a qualifying message may be.
	Within time.Duration
}
