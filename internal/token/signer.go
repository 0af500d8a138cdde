package token

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTampered = errors.New("token_tampered")
	ErrExpired  = errors.New("token_expired")
)

// maxIssuedAtSkew bounds how far in the future a token's issued-at claim may
// sit before the token is rejected outright.
const maxIssuedAtSkew = 60 * time.Second

// Payload is the signed content of an invite token.
type Payload struct {
	Issuer    string
	RoomID    string
	Nonce     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type inviteClaims struct {
	jwt.RegisteredClaims
	RoomID string `json:"room_id"`
	Nonce  string `json:"nonce"`
}

// Signer signs and verifies invite payloads as compact HS256 tokens
// (header.payload.signature, HMAC-SHA256 over the first two segments).
// Signature comparison inside the HMAC signing method is constant-time.
type Signer struct {
	secret []byte
	issuer string
}

func NewSigner(secret []byte, issuer string) *Signer {
	return &Signer{secret: secret, issuer: issuer}
}

func (s *Signer) Issuer() string { return s.issuer }

func (s *Signer) Sign(p Payload) (string, error) {
	issuer := p.Issuer
	if issuer == "" {
		issuer = s.issuer
	}
	claims := inviteClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(p.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(p.ExpiresAt),
		},
		RoomID: p.RoomID,
		Nonce:  p.Nonce,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify checks structure, signature, and time bounds at the supplied clock.
// Every structural or signature failure is ErrTampered; only a token whose
// signature holds but whose expiry has passed is ErrExpired, so callers can
// offer reissue for the latter and reject the former outright.
func (s *Signer) Verify(raw string, now time.Time) (Payload, error) {
	if strings.Count(raw, ".") != 2 {
		return Payload{}, ErrTampered
	}

	var claims inviteClaims
	// Claims validation is disabled so expiry stays under our control and maps
	// to its own error rather than folding into the parse error.
	parsed, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil || !parsed.Valid {
		return Payload{}, ErrTampered
	}
	for field := range parsed.Header {
		if field != "alg" && field != "typ" {
			return Payload{}, ErrTampered
		}
	}

	if claims.RoomID == "" || claims.Nonce == "" {
		return Payload{}, ErrTampered
	}
	if claims.IssuedAt == nil || claims.ExpiresAt == nil {
		return Payload{}, ErrTampered
	}
	if claims.IssuedAt.Time.After(now.Add(maxIssuedAtSkew)) {
		return Payload{}, ErrTampered
	}
	if !now.Before(claims.ExpiresAt.Time) {
		return Payload{}, ErrExpired
	}

	return Payload{
		Issuer:    claims.Issuer,
		RoomID:    claims.RoomID,
		Nonce:     claims.Nonce,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
