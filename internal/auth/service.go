// Package auth issues and validates the HS256 access tokens used by the
// back-office API. There is no user store here; operator identities come from
// the token subject.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/noah-isme/backend-importa/internal/common"
)

const defaultIssuer = "importa-api"

// Config carries the settings needed to build a Service.
type Config struct {
	Secret         string
	Issuer         string
	AccessTokenTTL time.Duration
	ClockSkew      time.Duration
	Now            func() time.Time
}

// Service signs and parses access tokens.
type Service struct {
	secret    []byte
	issuer    string
	accessTTL time.Duration
	validator TokenValidator
	now       func() time.Time
}

// NewService validates the configuration and builds a Service.
func NewService(cfg Config) (*Service, error) {
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, errors.New("auth: secret is required")
	}
	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		issuer = defaultIssuer
	}
	ttl := cfg.AccessTokenTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		secret:    []byte(secret),
		issuer:    issuer,
		accessTTL: ttl,
		validator: TokenValidator{
			Issuer:    issuer,
			ClockSkew: cfg.ClockSkew,
			Algorithm: jwa.HS256,
		},
		now: now,
	}, nil
}

// IssueAccessToken creates a signed token for the given operator identifier.
func (s *Service) IssueAccessToken(subject string) (string, time.Time, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", time.Time{}, errors.New("auth: subject is required")
	}
	now := s.now().UTC()
	expiresAt := now.Add(s.accessTTL)
	tok, err := jwt.NewBuilder().
		Issuer(s.issuer).
		Subject(subject).
		IssuedAt(now).
		Expiration(expiresAt).
		Build()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: build token: %w", err)
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, s.secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: sign token: %w", err)
	}
	return string(signed), expiresAt, nil
}

// ParseAccessToken verifies the signature and claims and returns the subject.
func (s *Service) ParseAccessToken(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", unauthorized("missing token", nil)
	}
	algorithm, err := tokenAlgorithm(raw)
	if err != nil {
		return "", unauthorized("malformed token", err)
	}
	tok, err := jwt.Parse([]byte(raw),
		jwt.WithKey(jwa.HS256, s.secret),
		jwt.WithValidate(false),
	)
	if err != nil {
		return "", unauthorized("invalid token", err)
	}
	if err := s.validator.Validate(tok, algorithm, s.now().UTC()); err != nil {
		return "", unauthorized("invalid token", err)
	}
	subject := strings.TrimSpace(tok.Subject())
	if subject == "" {
		return "", unauthorized("token missing subject", nil)
	}
	return subject, nil
}

func tokenAlgorithm(raw string) (jwa.SignatureAlgorithm, error) {
	msg, err := jws.ParseString(raw)
	if err != nil {
		return "", err
	}
	signatures := msg.Signatures()
	if len(signatures) == 0 {
		return "", errors.New("auth: token has no signature")
	}
	return signatures[0].ProtectedHeaders().Algorithm(), nil
}

func unauthorized(message string, err error) *common.AppError {
	return &common.AppError{
		Code:       "UNAUTHORIZED",
		Message:    message,
		HTTPStatus: 401,
		Err:        err,
	}
}
