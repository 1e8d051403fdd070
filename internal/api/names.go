package api

import (
	"strings"

	"armybuilder/internal/dataset"
)

// army resolves a name, exact match first, then case-insensitively. Caller
// holds s.mu.
func (s *Storage) army(name string) (*Army, bool) {
	if a, ok := s.Armies[name]; ok {
		return a, true
	}
	nl := strings.ToLower(strings.TrimSpace(name))
	if nl == "" {
		return nil, false
	}
	for key, a := range s.Armies {
		if strings.ToLower(key) == nl {
			return a, true
		}
	}
	return nil, false
}

// NormalizeArmy returns the canonical army name.
func (s *Storage) NormalizeArmy(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.army(name)
	if !ok {
		return "", false
	}
	return a.Name, true
}

// normalizeTarget resolves the :army and :category path pair.
func (s *Storage) normalizeTarget(army, category string) (string, dataset.Category, bool) {
	name, ok := s.NormalizeArmy(army)
	if !ok {
		return "", "", false
	}
	c, ok := dataset.ParseCategory(category)
	if !ok {
		return "", "", false
	}
	return name, c, true
}
