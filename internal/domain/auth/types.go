package auth

import "time"

// Config controls device token signing.
type Config struct {
	Secret   string
	Issuer   string
	TokenTTL time.Duration
}

// Enabled reports whether event endpoints require a token.
func (c Config) Enabled() bool {
	return c.Secret != ""
}

// Claims identify the phone-side bridge that sent an event.
type Claims struct {
	DeviceID  string
	ExpiresAt time.Time
}
