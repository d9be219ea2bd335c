package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/geocoder89/projectpulse/internal/domain/user"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultAccessTTL is the lifetime of an access token when none is configured.
const DefaultAccessTTL = 24 * time.Hour

var ErrInvalidToken = errors.New("invalid token")

// Claims is the token payload: {"sub": "<user id>", "role": "...", "exp": <unix>}.
// Tokens are not stored server side, so they stay valid until exp.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Identity is what a verified token asserts about its bearer.
type Identity struct {
	UserID int64
	Role   user.Role
}

type Manager struct {
	secret    []byte
	accessTTL time.Duration
	now       func() time.Time
}

func NewManager(secret string, accessTTL time.Duration) *Manager {
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTTL
	}

	return &Manager{
		secret:    []byte(secret),
		accessTTL: accessTTL,
		now:       time.Now,
	}
}

func (m *Manager) AccessTTL() time.Duration {
	return m.accessTTL
}

func (m *Manager) GenerateAccessToken(userID int64, role user.Role) (string, error) {
	return m.GenerateToken(userID, role, m.accessTTL)
}

func (m *Manager) GenerateToken(userID int64, role user.Role, ttl time.Duration) (string, error) {
	now := m.now().UTC()

	claims := Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

func (m *Manager) ParseAndValidate(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		// Enforce HS256
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// VerifyAccessToken checks signature and expiry and decodes the subject.
// It does not check that the user still exists.
func (m *Manager) VerifyAccessToken(tokenStr string) (Identity, error) {
	claims, err := m.ParseAndValidate(tokenStr)
	if err != nil {
		return Identity{}, err
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: subject is not a user id", ErrInvalidToken)
	}

	return Identity{UserID: id, Role: user.Role(claims.Role)}, nil
}
