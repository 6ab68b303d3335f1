// Package session keeps in-progress stateful rounds keyed by player.
package session

import (
	"sync"
	"time"

	"github.com/guildcasino/casino/internal/domain"
)

// Registry holds at most one live session per key. All access to a
// session happens under that key's lock, so callers may mutate S freely
// inside the callbacks without their own synchronization.
type Registry[S any] struct {
	name    string
	mu      sync.Mutex
	entries map[string]*entry[S]
	now     func() time.Time
}

type entry[S any] struct {
	mu      sync.Mutex
	sess    S
	live    bool
	removed bool
	touched time.Time
}

// NewRegistry creates an empty registry. name appears in error messages
// ("no active blackjack game").
func NewRegistry[S any](name string) *Registry[S] {
	return &Registry[S]{
		name:    name,
		entries: make(map[string]*entry[S]),
		now:     time.Now,
	}
}

// lock returns the key's entry locked. With create set a placeholder is
// inserted for missing keys; otherwise nil is returned.
func (r *Registry[S]) lock(key string, create bool) *entry[S] {
	for {
		r.mu.Lock()
		e, ok := r.entries[key]
		if !ok {
			if !create {
				r.mu.Unlock()
				return nil
			}
			e = &entry[S]{}
			r.entries[key] = e
		}
		r.mu.Unlock()

		e.mu.Lock()
		if !e.removed {
			return e
		}
		// lost a race with remove; the key may have a fresh entry now
		e.mu.Unlock()
	}
}

// remove drops e. Caller holds e.mu.
func (r *Registry[S]) remove(key string, e *entry[S]) {
	e.removed = true
	var zero S
	e.sess = zero
	r.mu.Lock()
	if r.entries[key] == e {
		delete(r.entries, key)
	}
	r.mu.Unlock()
}

// Start opens a session for key. create runs under the key's lock and
// returns the new session and whether it is still live; a session that
// finished immediately is returned but not stored. Start fails with
// ILLEGAL_STATE while key already has a live session.
func (r *Registry[S]) Start(key string, create func() (S, bool, error)) (S, error) {
	e := r.lock(key, true)
	defer e.mu.Unlock()

	if e.live {
		var zero S
		return zero, domain.ErrIllegalState("a " + r.name + " game is already in progress")
	}

	s, keep, err := create()
	if err != nil || !keep {
		r.remove(key, e)
		return s, err
	}
	e.sess = s
	e.live = true
	e.touched = r.now()
	return s, nil
}

// Do runs fn with exclusive access to key's session. When fn reports done
// the session is removed, whatever the error. Missing sessions fail with
// ILLEGAL_STATE.
func (r *Registry[S]) Do(key string, fn func(S) (done bool, err error)) error {
	e := r.lock(key, false)
	if e == nil {
		return r.noSession()
	}
	defer e.mu.Unlock()
	if !e.live {
		return r.noSession()
	}

	done, err := fn(e.sess)
	e.touched = r.now()
	if done {
		r.remove(key, e)
	}
	return err
}

// Peek runs fn on key's session without refreshing its idle timer. It
// reports whether a session existed.
func (r *Registry[S]) Peek(key string, fn func(S)) bool {
	e := r.lock(key, false)
	if e == nil {
		return false
	}
	defer e.mu.Unlock()
	if !e.live {
		return false
	}
	fn(e.sess)
	return true
}

// Sweep calls resolve for every session untouched for at least idle and
// removes those it resolves without error. It returns the number removed.
func (r *Registry[S]) Sweep(idle time.Duration, resolve func(key string, s S) error) int {
	r.mu.Lock()
	keys := make([]string, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	r.mu.Unlock()

	cutoff := r.now().Add(-idle)
	removed := 0
	for _, key := range keys {
		e := r.lock(key, false)
		if e == nil {
			continue
		}
		if e.live && !e.touched.After(cutoff) {
			if err := resolve(key, e.sess); err == nil {
				r.remove(key, e)
				removed++
			}
		}
		e.mu.Unlock()
	}
	return removed
}

// Len returns the number of live sessions.
func (r *Registry[S]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *Registry[S]) noSession() error {
	return domain.ErrIllegalState("no active " + r.name + " game")
}
