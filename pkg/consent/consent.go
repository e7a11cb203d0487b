// Package consent holds the visitor's cookie preferences for the lifetime of
// a process and notifies interested components when they change.
package consent

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"
)

// Version identifies the current preference schema. Records written under a
// different version are treated as absent.
const Version = 1

// Prefs are the visitor's choices. Necessary cookies cannot be refused.
type Prefs struct {
	Necessary bool `json:"necessary"`
	Marketing bool `json:"marketing"`
}

// Default is what a visitor who never answered gets.
func Default() Prefs {
	return Prefs{Necessary: true}
}

type record struct {
	Version   int       `json:"v"`
	Prefs     Prefs     `json:"prefs"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store is safe for concurrent use. The zero value is not usable; call New
// or Open.
type Store struct {
	mu      sync.RWMutex
	rec     *record
	path    string
	subs    map[int]chan Prefs
	nextSub int
	now     func() time.Time
}

// New returns an in-memory store with no recorded answer.
func New() *Store {
	return &Store{subs: make(map[int]chan Prefs), now: time.Now}
}

// Open returns a store persisted to path. A missing, unreadable or stale file
// starts the store empty.
func Open(path string) (*Store, error) {
	s := New()
	s.path = path

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read consent file: %w", err)
	}

	var rec record
	if json.Unmarshal(data, &rec) == nil && rec.Version == Version {
		s.rec = &rec
	}
	return s, nil
}

// Read reports the stored preferences and whether the visitor has answered.
func (s *Store) Read() (Prefs, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.rec == nil || s.rec.Version != Version {
		return Default(), false
	}
	return s.rec.Prefs, true
}

// Write records prefs and broadcasts them to every subscriber.
func (s *Store) Write(prefs Prefs) error {
	prefs.Necessary = true

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := &record{Version: Version, Prefs: prefs, UpdatedAt: s.now().UTC()}
	if err := s.persist(rec); err != nil {
		return err
	}
	s.rec = rec
	for _, ch := range s.subs {
		publish(ch, prefs)
	}
	return nil
}

// EnableMarketing is the "accept all" shortcut.
func (s *Store) EnableMarketing() error {
	return s.Write(Prefs{Necessary: true, Marketing: true})
}

// Subscribe returns a channel that always holds the most recent preferences
// not yet received. Slow readers miss intermediate values, never the last one.
// cancel closes the channel.
func (s *Store) Subscribe() (<-chan Prefs, func()) {
	ch := make(chan Prefs, 1)

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// publish replaces whatever the subscriber has not read yet. The caller holds
// s.mu, so it is the only sender and the loop ends.
func publish(ch chan Prefs, p Prefs) {
	for {
		select {
		case ch <- p:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

func (s *Store) persist(rec *record) error {
	if s.path == "" {
		return nil
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode consent: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write consent file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace consent file: %w", err)
	}
	return nil
}
