package jwt

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SigningMethod selects the JWT algorithm for cookie values.
type SigningMethod string

const (
	// MethodEd25519 signs with an Ed25519 key pair (alg EdDSA).
	MethodEd25519 SigningMethod = "ed25519"
	// MethodHS256 signs with a shared secret.
	MethodHS256 SigningMethod = "hs256"
)

// ErrInvalidCookie is returned by Parse for every rejected value.
var ErrInvalidCookie = errors.New("invalid session cookie")

// Config configures a [CookieSigner].
type Config struct {
	SigningMethod SigningMethod
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	KeyID         string
	// MaxAge adds an exp claim when positive.
	MaxAge       time.Duration
	MaxFutureIAT time.Duration
}

// CookieSigner wraps session identifiers in signed JWTs.
type CookieSigner struct {
	config  Config
	method  jwt.SigningMethod
	signKey any
	verify  any
	parser  *jwt.Parser
	now     func() time.Time
}

// CookieClaims is the payload of a signed cookie.
type CookieClaims struct {
	SID string `json:"sid"`
	jwt.RegisteredClaims
}

// NewCookieSigner validates cfg and resolves its keys once.
func NewCookieSigner(cfg Config) (*CookieSigner, error) {
	if cfg.MaxAge < 0 {
		return nil, errors.New("invalid MaxAge configuration")
	}
	if cfg.MaxFutureIAT == 0 {
		cfg.MaxFutureIAT = 10 * time.Minute
	}
	if cfg.MaxFutureIAT < 0 || cfg.MaxFutureIAT > 24*time.Hour {
		return nil, errors.New("invalid MaxFutureIAT configuration")
	}
	cfg.KeyID = strings.TrimSpace(cfg.KeyID)

	s := &CookieSigner{config: cfg, now: time.Now}

	switch cfg.SigningMethod {
	case MethodHS256:
		if len(cfg.PrivateKey) == 0 {
			return nil, errors.New("hs256 requires private key")
		}
		s.method = jwt.SigningMethodHS256
		s.signKey = cfg.PrivateKey
		s.verify = cfg.PrivateKey
	case MethodEd25519:
		priv, err := parseEdPrivateKey(cfg.PrivateKey)
		if err != nil {
			return nil, err
		}
		pub, err := parseEdPublicKey(cfg.PublicKey)
		if err != nil {
			return nil, err
		}
		s.method = jwt.SigningMethodEdDSA
		s.signKey = priv
		s.verify = pub
	default:
		return nil, errors.New("unsupported signing method")
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return s.now() }),
	}
	if cfg.Issuer != "" {
		options = append(options, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.MaxAge > 0 {
		options = append(options, jwt.WithExpirationRequired())
	}
	s.parser = jwt.NewParser(options...)

	return s, nil
}

// Sign returns the cookie value for sessionID.
func (s *CookieSigner) Sign(sessionID string) (string, error) {
	if sessionID == "" {
		return "", errors.New("empty session id")
	}

	now := s.now()
	claims := CookieClaims{
		SID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
			Issuer:   s.config.Issuer,
		},
	}
	if s.config.MaxAge > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.config.MaxAge))
	}

	token := jwt.NewWithClaims(s.method, claims)
	if s.config.KeyID != "" {
		token.Header["kid"] = s.config.KeyID
	}

	return token.SignedString(s.signKey)
}

// Parse verifies value and returns the session identifier it carries. Every
// failure is reported as [ErrInvalidCookie] wrapping the parser error.
func (s *CookieSigner) Parse(value string) (string, error) {
	token, err := s.parser.ParseWithClaims(value, &CookieClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != s.method.Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		if s.config.KeyID != "" {
			kid, _ := t.Header["kid"].(string)
			if kid == "" {
				return nil, errors.New("missing kid")
			}
			if kid != s.config.KeyID {
				return nil, errors.New("unknown kid")
			}
		}
		return s.verify, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCookie, err)
	}

	claims, ok := token.Claims.(*CookieClaims)
	if !ok || !token.Valid || claims.SID == "" {
		return "", ErrInvalidCookie
	}
	if claims.IssuedAt != nil && claims.IssuedAt.Time.After(s.now().Add(s.config.MaxFutureIAT)) {
		return "", fmt.Errorf("%w: iat too far in the future", ErrInvalidCookie)
	}

	return claims.SID, nil
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 private key")
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("invalid ed25519 private key type")
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("invalid ed25519 public key type")
	}
	return edKey, nil
}
