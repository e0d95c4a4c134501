package config

import "time"

// JWTConfig configures HS256 access tokens issued and verified by this service.
type JWTConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration

	// ClockSkew is tolerated on exp/iat checks.
	ClockSkew time.Duration
}
