package game

import (
	"math/rand/v2"
	"time"
)

// Rules are the tunable limits of a game
type Rules struct {
	MinPlayers    int
	MaxPlayers    int
	MaxNameLength int

	// Voting timeout bounds, in seconds
	DefaultVotingTimeout int
	MinVotingTimeout     int
	MaxVotingTimeout     int

	// HeartbeatThrottle is the minimum gap between stored heartbeats
	HeartbeatThrottle time.Duration
	// HeartbeatFresh is how long a heartbeat counts as "recently seen"
	HeartbeatFresh time.Duration
}

// DefaultRules returns the standard party rules
func DefaultRules() Rules {
	return Rules{
		MinPlayers:           3,
		MaxPlayers:           20,
		MaxNameLength:        20,
		DefaultVotingTimeout: 120,
		MinVotingTimeout:     30,
		MaxVotingTimeout:     180,
		HeartbeatThrottle:    10 * time.Second,
		HeartbeatFresh:       20 * time.Second,
	}
}

// VotingTimeout clamps a requested timeout into range; zero selects the default
func (r Rules) VotingTimeout(seconds int) int {
	if seconds <= 0 {
		return r.DefaultVotingTimeout
	}
	if seconds < r.MinVotingTimeout {
		return r.MinVotingTimeout
	}
	if seconds > r.MaxVotingTimeout {
		return r.MaxVotingTimeout
	}
	return seconds
}

// Rand is the source of randomness for impostor and host selection
type Rand interface {
	IntN(n int) int
}

// SharedRand draws from the process-wide generator, safe for concurrent use
var SharedRand Rand = sharedRand{}

type sharedRand struct{}

func (sharedRand) IntN(n int) int { return rand.IntN(n) }

// Word is a secret word with the category shown to the impostor
type Word struct {
	Text     string `json:"word" bson:"word"`
	Category string `json:"category" bson:"category"`
}
