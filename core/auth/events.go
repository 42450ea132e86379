package auth

import (
	"context"
	"sync"

	"github.com/tsedeniyafiseha/school-management-system/core"
)

// ProfileStore holds the currently resolved profile and keeps it in sync with
// the provider's auth-state event stream. All mutation goes through the single
// apply transition; consumers read a snapshot with Current.
type ProfileStore struct {
	resolver *Resolver
	provider Provider
	logger   core.Logger

	mu      sync.RWMutex
	current Profile
	ok      bool

	stop chan struct{}
	done chan struct{}
}

func NewProfileStore(resolver *Resolver, provider Provider, logger core.Logger) *ProfileStore {
	return &ProfileStore{
		resolver: resolver,
		provider: provider,
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start consumes the provider event stream until Stop is called.
// Tie it to application lifetime; call exactly once.
func (s *ProfileStore) Start(ctx context.Context) {
	go func() {
		defer close(s.done)
		events := s.provider.Events()
		for {
			select {
			case ev, open := <-events:
				if !open {
					return
				}
				s.apply(ctx, ev)
			case <-s.stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop tears the consumer down and waits for it to drain.
func (s *ProfileStore) Stop() {
	close(s.stop)
	<-s.done
}

// apply is the single state-transition function for auth-state events.
func (s *ProfileStore) apply(ctx context.Context, ev Event) {
	switch ev.Kind {
	case EventSignedOut:
		s.set(Profile{}, false)
	case EventTokenRefreshed:
		if ev.Session == nil {
			return
		}
		s.resolver.Invalidate(ctx, ev.Session.Account.ID)
		profile, err := s.resolver.Resolve(ctx, ev.Session.Account.ID)
		if err != nil {
			s.logger.Warn("re-resolving profile on token refresh", err)
			s.set(Profile{}, false)
			return
		}
		s.set(profile, true)
	}
}

// SetCurrent records a profile resolved out-of-band (e.g. after login).
func (s *ProfileStore) SetCurrent(p Profile) { s.set(p, true) }

// Clear drops the current profile (e.g. after logout).
func (s *ProfileStore) Clear() { s.set(Profile{}, false) }

// Current returns the resolved profile snapshot and whether one is present.
func (s *ProfileStore) Current() (Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.ok
}

func (s *ProfileStore) set(p Profile, ok bool) {
	s.mu.Lock()
	s.current, s.ok = p, ok
	s.mu.Unlock()
}
