package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"

	"imposter/internal/model"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// AuthService issues and checks the per-player access tokens handed out on create and join
type AuthService struct {
	jwtSecret []byte
	ttl       time.Duration
	clock     clockwork.Clock
}

// NewAuthService creates a new auth service
func NewAuthService(secret string, ttl time.Duration, clock clockwork.Clock) *AuthService {
	return &AuthService{
		jwtSecret: []byte(secret),
		ttl:       ttl,
		clock:     clock,
	}
}

// GeneratePlayerToken creates a game-scoped token for a player
func (s *AuthService) GeneratePlayerToken(gameToken, playerID string) (string, error) {
	now := s.clock.Now()
	claims := &model.PlayerClaims{
		GameToken: gameToken,
		PlayerID:  playerID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   playerID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)), // matches the session lifetime
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidatePlayerToken validates a player JWT and returns claims
func (s *AuthService) ValidatePlayerToken(tokenString string) (*model.PlayerClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &model.PlayerClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*model.PlayerClaims)
	if !ok || !token.Valid || claims.GameToken == "" || claims.PlayerID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
