package model

import "log/slog"

// Credentials are the portal login pair supplied at process start.
type Credentials struct {
	Username string
	Password string
}

// Validate returns a *ConfigError naming the first missing field.
func (c Credentials) Validate() error {
	if c.Username == "" {
		return &ConfigError{Field: "NAUKRI_USERNAME"}
	}
	if c.Password == "" {
		return &ConfigError{Field: "NAUKRI_PASSWORD"}
	}
	return nil
}

// String redacts the password so credentials can never leak through %v.
func (c Credentials) String() string {
	return c.Username + ":[redacted]"
}

// LogValue implements slog.LogValuer with the password redacted.
func (c Credentials) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("username", c.Username),
		slog.String("password", "[redacted]"),
	)
}
