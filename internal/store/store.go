// Package store is the boundary between the rule file and the engine: it
// supplies active rule snapshots per contract, with a short-lived cache in
// front of the config so hot batches don't re-filter on every call.
package store

import (
	"fmt"
	"time"

	cache "github.com/patrickmn/go-cache"

	"github.com/fernwell/royaltyd/internal/config"
	"github.com/fernwell/royaltyd/internal/rule"
)

const (
	snapshotTTL     = 5 * time.Minute
	cleanupInterval = 10 * time.Minute
)

// Store serves per-contract rule snapshots backed by the config loader.
type Store struct {
	loader *config.Loader
	cache  *cache.Cache
}

// New creates a Store over loader.
func New(loader *config.Loader) *Store {
	return &Store{
		loader: loader,
		cache:  cache.New(snapshotTTL, cleanupInterval),
	}
}

// RulesForContract returns the active rules for contractID. The slice is a
// snapshot: callers must not mutate it, and a rule-file reload never changes
// a slice already handed out.
func (s *Store) RulesForContract(contractID string) ([]rule.Rule, error) {
	if cached, ok := s.cache.Get(contractID); ok {
		return cached.([]rule.Rule), nil
	}

	cfg := s.loader.Config()
	for _, c := range cfg.Contracts {
		if c.ID != contractID {
			continue
		}
		active := make([]rule.Rule, 0, len(c.Rules))
		for _, r := range c.Rules {
			if r.Active {
				active = append(active, r)
			}
		}
		s.cache.Set(contractID, active, cache.DefaultExpiration)
		return active, nil
	}
	return nil, fmt.Errorf("unknown contract %q", contractID)
}

// Contracts returns the IDs of all loaded contracts.
func (s *Store) Contracts() []string {
	cfg := s.loader.Config()
	out := make([]string, 0, len(cfg.Contracts))
	for _, c := range cfg.Contracts {
		out = append(out, c.ID)
	}
	return out
}

// Invalidate drops all cached snapshots. Wired to the loader's reload
// callback so a fresh rule file takes effect immediately.
func (s *Store) Invalidate() {
	s.cache.Flush()
}
