package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/annabel-goldman/aquarium/internal/game"
	"github.com/golang-jwt/jwt/v5"
)

const (
	sessionAudience = "aquarium-session"
	catchAudience   = "aquarium-catch"
)

type sessionClaims struct {
	jwt.RegisteredClaims
}

type catchClaims struct {
	jwt.RegisteredClaims
	Fish game.Fish `json:"fish"`
}

// Sessions issues and verifies HS256 session tokens carrying the username.
type Sessions struct {
	secret []byte
	ttl    time.Duration
}

func NewSessions(secret []byte, ttl time.Duration) *Sessions {
	return &Sessions{secret: secret, ttl: ttl}
}

func (s *Sessions) TTL() time.Duration {
	return s.ttl
}

func (s *Sessions) Issue(username string, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			Audience:  jwt.ClaimStrings{sessionAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session: %w", err)
	}
	return signed, nil
}

// Verify returns the username, or game.ErrUnauthorized.
func (s *Sessions) Verify(tokenString string, now time.Time) (string, error) {
	claims := &sessionClaims{}
	if err := parse(tokenString, claims, s.secret, sessionAudience, now); err != nil {
		return "", fmt.Errorf("%w: %v", game.ErrUnauthorized, err)
	}
	if err := game.ValidateUsername(claims.Subject); err != nil {
		return "", fmt.Errorf("%w: bad subject", game.ErrUnauthorized)
	}
	return claims.Subject, nil
}

// Tickets sign provisional catches so the follow-up keep, release or swap can
// trust the fish it is handed. A ticket is bound to one user.
type Tickets struct {
	secret []byte
	ttl    time.Duration
}

func NewTickets(secret []byte, ttl time.Duration) *Tickets {
	return &Tickets{secret: secret, ttl: ttl}
}

func (t *Tickets) Issue(username string, fish game.Fish, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, catchClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        fish.ID,
			Subject:   username,
			Audience:  jwt.ClaimStrings{catchAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
		Fish: fish,
	})
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign ticket: %w", err)
	}
	return signed, nil
}

func (t *Tickets) Verify(tokenString, username string, now time.Time) (game.Fish, error) {
	claims := &catchClaims{}
	if err := parse(tokenString, claims, t.secret, catchAudience, now); err != nil {
		return game.Fish{}, fmt.Errorf("%w: %v", game.ErrInvalidTicket, err)
	}
	if claims.Subject != username {
		return game.Fish{}, fmt.Errorf("%w: issued to another user", game.ErrInvalidTicket)
	}
	if claims.Fish.ID == "" || claims.Fish.ID != claims.ID {
		return game.Fish{}, fmt.Errorf("%w: fish id mismatch", game.ErrInvalidTicket)
	}
	return claims.Fish, nil
}

func parse(tokenString string, claims jwt.Claims, secret []byte, audience string, now time.Time) error {
	if tokenString == "" {
		return errors.New("missing token")
	}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		return err
	}
	if !token.Valid {
		return errors.New("token is not valid")
	}
	return nil
}
