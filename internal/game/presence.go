package game

import (
	"time"

	"imposter/internal/model"
)

// NeedsHeartbeat reports whether a ping should be written; writes are throttled
func NeedsHeartbeat(p *model.Player, rules Rules, now time.Time) bool {
	return p.LastHeartbeat == nil || now.Sub(*p.LastHeartbeat) >= rules.HeartbeatThrottle
}

// RecentlySeen reports whether the player pinged (or joined) within the fresh window
func RecentlySeen(p *model.Player, rules Rules, now time.Time) bool {
	return now.Sub(p.LastSeen()) < rules.HeartbeatFresh
}

// RecentlySeenSet is the heartbeat-based stand-in for the live connection roster
func RecentlySeenSet(s *model.Session, rules Rules, now time.Time) map[string]bool {
	seen := make(map[string]bool)
	for _, p := range s.ActivePlayers() {
		if RecentlySeen(p, rules, now) {
			seen[p.ID] = true
		}
	}
	return seen
}

// ActiveIDs lists active player ids in join order
func ActiveIDs(s *model.Session) []string {
	ids := make([]string, 0, len(s.Players))
	for _, p := range s.ActivePlayers() {
		ids = append(ids, p.ID)
	}
	return ids
}

// Heartbeat records a ping and lazily evaluates the voting deadline
func Heartbeat(s *model.Session, rules Rules, playerID string, now time.Time) (Change, error) {
	p, err := requireActive(s, playerID)
	if err != nil {
		return Change{}, err
	}
	var c Change
	if NeedsHeartbeat(p, rules, now) {
		at := now
		p.LastHeartbeat = &at
		c.Dirty = true
	}
	c.merge(CheckDeadline(s, now))
	return c, nil
}
