package adminGate

import "time"

// SecurityReport summarizes the effective security posture of a Guard. The
// command logs it at startup.
type SecurityReport struct {
	ProductionMode     bool
	FreshnessWindow    time.Duration
	StoreTTL           time.Duration
	CookieSigned       bool
	SigningAlgorithm   string
	SecureCookies      bool
	SameSite           string
	RateLimitingActive bool
	IPThrottleActive   bool
	AuditEnabled       bool
	Argon2             PasswordConfigReport
}

// PasswordConfigReport mirrors the argon2id parameters in use.
type PasswordConfigReport struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

func (g *Guard) SecurityReport() SecurityReport {
	if g == nil {
		return SecurityReport{}
	}

	c := g.config
	return SecurityReport{
		ProductionMode:     c.Security.ProductionMode,
		FreshnessWindow:    c.Session.FreshnessWindow,
		StoreTTL:           c.Session.StoreTTL,
		CookieSigned:       g.signer != nil,
		SigningAlgorithm:   c.Cookie.SigningMethod,
		SecureCookies:      c.Cookie.Secure,
		SameSite:           sameSiteName(c.Cookie.SameSite),
		RateLimitingActive: g.limiter != nil,
		IPThrottleActive:   g.limiter != nil && c.Security.EnableIPThrottle,
		AuditEnabled:       g.audit != nil,
		Argon2: PasswordConfigReport{
			Memory:      c.Password.Memory,
			Time:        c.Password.Time,
			Parallelism: c.Password.Parallelism,
			SaltLength:  c.Password.SaltLength,
			KeyLength:   c.Password.KeyLength,
		},
	}
}
