package workspace

import (
	"sync"
	"time"
)

// Store keeps one Workspace per session key (browser cookie or chat id).
type Store struct {
	m sync.Map // key -> *Workspace
}

func NewStore() *Store { return &Store{} }

func (s *Store) Get(key string) *Workspace {
	if v, ok := s.m.Load(key); ok {
		return v.(*Workspace)
	}
	v, _ := s.m.LoadOrStore(key, New())
	return v.(*Workspace)
}

// Lookup returns the workspace only if it already exists.
func (s *Store) Lookup(key string) (*Workspace, bool) {
	v, ok := s.m.Load(key)
	if !ok {
		return nil, false
	}
	return v.(*Workspace), true
}

func (s *Store) Delete(key string) { s.m.Delete(key) }

// Sweep forgets idle workspaces untouched for longer than maxIdle.
func (s *Store) Sweep(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)
	n := 0
	s.m.Range(func(k, v any) bool {
		w := v.(*Workspace)
		if w.View().Status != InFlight && w.lastTouched().Before(cutoff) {
			s.m.Delete(k)
			n++
		}
		return true
	})
	return n
}
