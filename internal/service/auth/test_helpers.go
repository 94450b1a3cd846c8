package auth

import "time"

// NewTestJWTService creates a JWT service with an injectable time
// function so tests can control token issue and validation time.
// The clock skew allowance is disabled to make expiry tests exact.
func NewTestJWTService(secret string, tokenLifetime time.Duration, timeFunc func() time.Time) JWTService {
	return &hmacJWTService{
		signingKey:           []byte(secret),
		tokenLifetime:        tokenLifetime,
		refreshTokenLifetime: tokenLifetime * 10,
		timeFunc:             timeFunc,
		clockSkew:            0,
	}
}
