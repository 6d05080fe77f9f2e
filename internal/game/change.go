package game

import "imposter/internal/model"

// Change describes the effect of a transition on a session
type Change struct {
	// Dirty is set when the session was modified and must be persisted
	Dirty bool
	// Empty is set when no active player remains and the session should be deleted
	Empty bool
	// Events to publish once the write is durable, in order
	Events []model.Event
}

func (c *Change) emit(ev model.Event) {
	c.Events = append(c.Events, ev)
}

func (c *Change) merge(o Change) {
	c.Dirty = c.Dirty || o.Dirty
	c.Empty = c.Empty || o.Empty
	c.Events = append(c.Events, o.Events...)
}

func requireActive(s *model.Session, playerID string) (*model.Player, error) {
	p := s.Player(playerID)
	if p == nil {
		return nil, ErrPlayerNotFound
	}
	if !p.IsActive {
		return nil, ErrNotActive
	}
	return p, nil
}

func requireHost(s *model.Session, playerID string) (*model.Player, error) {
	p, err := requireActive(s, playerID)
	if err != nil {
		return nil, err
	}
	if !p.IsHost {
		return nil, ErrNotHost
	}
	return p, nil
}

func countWhere(players []*model.Player, pred func(*model.Player) bool) int {
	n := 0
	for _, p := range players {
		if pred(p) {
			n++
		}
	}
	return n
}

func removePlayer(s *model.Session, id string) {
	kept := s.Players[:0]
	for _, p := range s.Players {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	s.Players = kept
}
