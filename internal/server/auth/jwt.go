// Package auth holds the server's credential primitives: bcrypt password
// hashing and the signed, stateless session tokens handed out at login.
package auth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// KindAccess is the only session token kind issued by the server.
const KindAccess = "access"

// Claims is the decoded content of a session token.
type Claims struct {
	Subject   string
	ExpiresAt time.Time
	Kind      string
}

// SubjectID parses Subject as a user id.
func (c Claims) SubjectID() (int64, bool) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

type tokenClaims struct {
	jwt.RegisteredClaims
	Type string `json:"type"`
}

// SessionCodec issues and verifies HMAC-signed session tokens.
type SessionCodec struct {
	secret []byte
	method jwt.SigningMethod
	now    func() time.Time
}

// NewSessionCodec returns a codec for one of HS256, HS384 or HS512.
func NewSessionCodec(secret []byte, algorithm string) (*SessionCodec, error) {
	var method jwt.SigningMethod
	switch algorithm {
	case "HS256":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("%w: %q", common.ErrUnsupportedSigningAlgo, algorithm)
	}
	return &SessionCodec{secret: secret, method: method, now: time.Now}, nil
}

// WithClock replaces the time source; used in tests.
func (c *SessionCodec) WithClock(now func() time.Time) *SessionCodec {
	c.now = now
	return c
}

// Issue signs a token for subjectID that expires after ttl.
func (c *SessionCodec) Issue(subjectID int64, ttl time.Duration) (string, error) {
	now := c.now()
	token := jwt.NewWithClaims(c.method, tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(subjectID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Type: KindAccess,
	})

	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", err
	}
	return signed, nil
}

// Decode verifies signature, algorithm and expiry of token. Any failure
// yields false; callers do not learn why.
func (c *SessionCodec) Decode(token string) (Claims, bool) {
	claims := &tokenClaims{}

	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !parsed.Valid {
		return Claims{}, false
	}

	return Claims{
		Subject:   claims.Subject,
		ExpiresAt: claims.ExpiresAt.Time,
		Kind:      claims.Type,
	}, true
}
