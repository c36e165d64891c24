package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/suspectuso/ton-mintgate/internal/controls"
)

var (
	ErrNoToken      = errors.New("no bearer token")
	ErrInvalidToken = errors.New("invalid token")
)

const issuer = "mintgate"

// Claims identify the wallet acting on a request. The subject is the wallet
// address in any form tongo parses.
type Claims struct {
	jwt.RegisteredClaims
}

// Verifier checks HS256 tokens signed with a shared secret.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Identity parses tokenString and returns the wallet it names
func (v *Verifier) Identity(tokenString string) (controls.Address, error) {
	if tokenString == "" {
		return controls.Address{}, ErrNoToken
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return controls.Address{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return controls.Address{}, ErrInvalidToken
	}
	wallet, err := controls.ParseAddress(claims.Subject)
	if err != nil || wallet.IsZero() {
		return controls.Address{}, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	return wallet, nil
}

// FromHeader extracts the token of an Authorization: Bearer header
func FromHeader(header string) string {
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// Issue signs a token naming wallet, valid for ttl
func (v *Verifier) Issue(wallet controls.Address, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   wallet.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
