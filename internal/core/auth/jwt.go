package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"user-admin/pkg/utils"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidSession     = errors.New("invalid session")
)

type Claims struct {
	jwt.RegisteredClaims
}

// JWTer issues and verifies HS256 session tokens. The admin username travels
// in the subject claim.
type JWTer struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
	now    func() time.Time
}

func NewJWTer(secret, issuer string, ttl time.Duration) *JWTer {
	return &JWTer{Secret: []byte(secret), Issuer: issuer, TTL: ttl, now: time.Now}
}

func (j *JWTer) Issue(username string) (string, time.Time, error) {
	now := j.now()
	exp := now.Add(j.TTL)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			Issuer:    j.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString(j.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session: %w", err)
	}
	return s, exp, nil
}

func (j *JWTer) Parse(tokenStr string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected alg %v", token.Header["alg"])
		}
		return j.Secret, nil
	}, jwt.WithIssuer(j.Issuer), jwt.WithLeeway(30*time.Second), jwt.WithTimeFunc(j.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	c, ok := t.Claims.(*Claims)
	if !ok || !t.Valid || c.Subject == "" {
		return nil, ErrInvalidSession
	}
	return c, nil
}

// Credentials is the single shared admin login.
type Credentials struct {
	Username     string
	Password     string
	PasswordHash string // bcrypt; checked instead of Password when set
}

func (c Credentials) Verify(username, password string) error {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(c.Username)) == 1
	var passOK bool
	if c.PasswordHash != "" {
		passOK = utils.CheckPassword(password, c.PasswordHash)
	} else {
		passOK = subtle.ConstantTimeCompare([]byte(password), []byte(c.Password)) == 1
	}
	if !userOK || !passOK {
		return ErrInvalidCredentials
	}
	return nil
}
