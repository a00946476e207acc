// internal/common/circuitbreaker/breaker.go

// Package circuitbreaker stops calling a failing delivery channel until a
// cooldown has passed.
package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

var ErrOpen = errors.New("circuit breaker is open")

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

type keyState struct {
	state    State
	failures int
	openedAt time.Time
}

// Breaker tracks consecutive failures per key. One trial call is let through
// after the cooldown; its result closes or re-opens the key.
type Breaker struct {
	mu        sync.Mutex
	keys      map[string]*keyState
	threshold int
	cooldown  time.Duration
	now       func() time.Time
}

func New(threshold int, cooldown time.Duration) *Breaker {
	if threshold <= 0 {
		threshold = 1
	}
	return &Breaker{
		keys:      make(map[string]*keyState),
		threshold: threshold,
		cooldown:  cooldown,
		now:       time.Now,
	}
}

func (b *Breaker) Allow(key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.keys[key]
	if !ok {
		return nil
	}
	switch s.state {
	case StateOpen:
		if b.now().Sub(s.openedAt) >= b.cooldown {
			s.state = StateHalfOpen
			return nil
		}
		return ErrOpen
	case StateHalfOpen:
		return ErrOpen
	default:
		return nil
	}
}

func (b *Breaker) RecordSuccess(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if s, ok := b.keys[key]; ok {
		s.state = StateClosed
		s.failures = 0
	}
}

func (b *Breaker) RecordFailure(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.keys[key]
	if !ok {
		s = &keyState{}
		b.keys[key] = s
	}
	s.failures++
	if s.state == StateHalfOpen || s.failures >= b.threshold {
		s.state = StateOpen
		s.openedAt = b.now()
	}
}

// Do runs fn when key is allowed and records its outcome.
func (b *Breaker) Do(key string, fn func() error) error {
	if err := b.Allow(key); err != nil {
		return err
	}
	if err := fn(); err != nil {
		b.RecordFailure(key)
		return err
	}
	b.RecordSuccess(key)
	return nil
}

func (b *Breaker) State(key string) State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s, ok := b.keys[key]; ok {
		return s.state
	}
	return StateClosed
}
