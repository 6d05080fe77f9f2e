package model

import "github.com/golang-jwt/jwt/v5"

// PlayerClaims are JWT claims binding a bearer to one player of one game
type PlayerClaims struct {
	GameToken string `json:"gameToken"`
	PlayerID  string `json:"playerId"`
	jwt.RegisteredClaims
}
