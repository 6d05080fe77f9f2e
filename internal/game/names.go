package game

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"

	"imposter/internal/model"
)

// NormalizeName trims a display name and checks its length
func NormalizeName(name string, maxLen int) (string, error) {
	name = strings.TrimSpace(name)
	n := utf8.RuneCountInString(name)
	if n == 0 || n > maxLen {
		return "", ErrInvalidName
	}
	return name, nil
}

// sameName compares names with Unicode case folding
func sameName(a, b string) bool {
	fold := cases.Fold()
	return fold.String(a) == fold.String(b)
}

func findActiveByName(s *model.Session, name string) *model.Player {
	name = strings.TrimSpace(name)
	for _, p := range s.Players {
		if p.IsActive && sameName(p.Name, name) {
			return p
		}
	}
	return nil
}

func findAnyByName(s *model.Session, name string) *model.Player {
	name = strings.TrimSpace(name)
	for _, p := range s.Players {
		if sameName(p.Name, name) {
			return p
		}
	}
	return nil
}
