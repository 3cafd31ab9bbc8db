package auth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/honeynil/BooReviewService/internal/models"
	pkgerrors "github.com/honeynil/BooReviewService/pkg/errors"
)

// tokenClaims is the fixed payload shape. iat/exp in RegisteredClaims are
// second-precision and informational; iat_ms/exp_ms are authoritative.
type tokenClaims struct {
	jwt.RegisteredClaims
	Kind        models.TokenKind `json:"token_type"`
	IssuedAtMs  int64            `json:"iat_ms"`
	ExpiresAtMs int64            `json:"exp_ms"`
}

// Codec signs and parses tokens with a shared HMAC secret.
type Codec struct {
	secret []byte
	issuer string
	parser *jwt.Parser
}

func NewCodec(secret []byte, issuer string) (*Codec, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("JWT secret not set")
	}
	if issuer == "" {
		return nil, fmt.Errorf("JWT issuer not set")
	}
	return &Codec{
		secret: secret,
		issuer: issuer,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
			jwt.WithStrictDecoding(),
			jwt.WithoutClaimsValidation(),
		),
	}, nil
}

func (c *Codec) Issuer() string {
	return c.issuer
}

func (c *Codec) Encode(t models.Token) (string, error) {
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.Issuer,
			Subject:   strconv.FormatInt(t.SubjectID, 10),
			ID:        t.ID,
			IssuedAt:  jwt.NewNumericDate(t.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(t.ExpiresAt),
		},
		Kind:        t.Kind,
		IssuedAtMs:  t.IssuedAt.UnixMilli(),
		ExpiresAtMs: t.ExpiresAt.UnixMilli(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	token.Header["typ"] = "JWT"
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Decode verifies the signature and the presence of every required claim.
// It performs no temporal checks; those belong to TokenService.
func (c *Codec) Decode(tokenStr string) (models.Token, error) {
	if tokenStr == "" {
		return models.Token{}, fmt.Errorf("%w: empty token", pkgerrors.ErrMalformedToken)
	}

	claims := &tokenClaims{}
	token, err := c.parser.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return c.secret, nil
	})
	if err != nil {
		return models.Token{}, fmt.Errorf("%w: %v", pkgerrors.ErrMalformedToken, err)
	}
	if !token.Valid {
		return models.Token{}, fmt.Errorf("%w: invalid signature", pkgerrors.ErrMalformedToken)
	}

	if claims.Issuer != c.issuer {
		return models.Token{}, fmt.Errorf("%w: unexpected issuer %q", pkgerrors.ErrMalformedToken, claims.Issuer)
	}
	if claims.Subject == "" {
		return models.Token{}, fmt.Errorf("%w: missing subject", pkgerrors.ErrMalformedToken)
	}
	subjectID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || subjectID <= 0 {
		return models.Token{}, fmt.Errorf("%w: invalid subject %q", pkgerrors.ErrMalformedToken, claims.Subject)
	}
	if !claims.Kind.Valid() {
		return models.Token{}, fmt.Errorf("%w: invalid token_type %q", pkgerrors.ErrMalformedToken, claims.Kind)
	}
	if claims.IssuedAtMs == 0 || claims.ExpiresAtMs == 0 {
		return models.Token{}, fmt.Errorf("%w: missing iat_ms or exp_ms", pkgerrors.ErrMalformedToken)
	}
	if claims.ExpiresAtMs <= claims.IssuedAtMs {
		return models.Token{}, fmt.Errorf("%w: expiry not after issued-at", pkgerrors.ErrMalformedToken)
	}
	// revocation marks compare IDs as strings, so only the canonical form is accepted
	if id, err := uuid.Parse(claims.ID); err != nil || id.Version() != 7 || id.String() != claims.ID {
		return models.Token{}, fmt.Errorf("%w: invalid jti %q", pkgerrors.ErrMalformedToken, claims.ID)
	}

	return models.Token{
		SubjectID: subjectID,
		Kind:      claims.Kind,
		IssuedAt:  time.UnixMilli(claims.IssuedAtMs),
		ExpiresAt: time.UnixMilli(claims.ExpiresAtMs),
		ID:        claims.ID,
		Issuer:    claims.Issuer,
	}, nil
}
