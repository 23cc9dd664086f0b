package model

import "time"

// Session is an authenticated portal session. Its expiry is unknown in
// advance; a 401 from the portal is the only signal that it is no longer valid.
type Session struct {
	Token      string
	AcquiredAt time.Time
}

// Valid reports whether the session carries a token.
func (s Session) Valid() bool {
	return s.Token != ""
}

// ProfileHandle addresses per-profile portal calls. A handle belongs to the
// session it was resolved under and is discarded when that session is replaced.
type ProfileHandle struct {
	ProfileID string
}

// Profile is the subset of the portal's profile document the actions need.
type Profile struct {
	ProfileID string
	KeySkills string
}

// Cookie is a name/value pair returned by the portal's login endpoints.
type Cookie struct {
	Name  string
	Value string
}

// LoginResponse is the outcome of a credential or OTP submission. When
// MFARequired is set the portal has emailed a one-time code and Cookies is empty.
type LoginResponse struct {
	Cookies     []Cookie
	MFARequired bool
}

// CookieValue returns the value of the first cookie called name.
func (r LoginResponse) CookieValue(name string) (string, bool) {
	for _, c := range r.Cookies {
		if c.Name == name && c.Value != "" {
			return c.Value, true
		}
	}
	return "", false
}
