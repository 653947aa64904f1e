package auth

import (
	"context"
	"sync"

	"github.com/julianstephens/hydratemate/internal/logger"
)

// EventKind identifies a session change
type EventKind int

const (
	InitialSession EventKind = iota
	SignedIn
	SignedOut
)

func (k EventKind) String() string {
	switch k {
	case InitialSession:
		return "initial-session"
	case SignedIn:
		return "signed-in"
	case SignedOut:
		return "signed-out"
	default:
		return "unknown"
	}
}

// Event is published to subscribers on every session change. User is nil
// when nobody is signed in.
type Event struct {
	Kind EventKind
	User *User
}

const subscriberBuffer = 8

// Session tracks the signed-in user and fans changes out to subscribers
type Session struct {
	provider Provider

	mu     sync.Mutex
	user   *User
	subs   map[int]chan Event
	nextID int
	closed bool
}

func NewSession(p Provider) *Session {
	return &Session{provider: p, subs: make(map[int]chan Event)}
}

// Init loads the current user and publishes InitialSession. A provider
// failure is logged and treated as signed out.
func (s *Session) Init(ctx context.Context) *User {
	user, err := s.provider.CurrentUser(ctx)
	if err != nil {
		logger.Warn("Failed to restore session", "error", err)
		user = nil
	}
	s.publish(Event{Kind: InitialSession, User: user})
	return user
}

func (s *Session) SignUp(ctx context.Context, data SignUpData) (*User, error) {
	user, err := s.provider.SignUp(ctx, data)
	if err != nil {
		return nil, err
	}
	s.publish(Event{Kind: SignedIn, User: user})
	return user, nil
}

func (s *Session) SignIn(ctx context.Context, data SignInData) (*User, error) {
	user, err := s.provider.SignIn(ctx, data)
	if err != nil {
		return nil, err
	}
	s.publish(Event{Kind: SignedIn, User: user})
	return user, nil
}

// SignOut keeps the current user when the provider fails
func (s *Session) SignOut(ctx context.Context) error {
	if err := s.provider.SignOut(ctx); err != nil {
		return err
	}
	s.publish(Event{Kind: SignedOut})
	return nil
}

// User returns the last known user
func (s *Session) User() *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

func (s *Session) Authenticated() bool {
	return s.User() != nil
}

// Subscribe returns a channel of session events and a function that ends
// the subscription. The function closes the channel and is safe to call
// more than once. After Close the channel is returned already closed.
func (s *Session) Subscribe() (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	if s.closed {
		close(ch)
		return ch, func() {}
	}

	id := s.nextID
	s.nextID++
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if sub, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(sub)
			}
		})
	}
}

// Close ends every subscription
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}

// publish never blocks; a subscriber whose buffer is full misses the event
func (s *Session) publish(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = ev.User
	for id, ch := range s.subs {
		select {
		case ch <- ev:
		default:
			logger.Warn("Dropping session event for slow subscriber", "subscriber", id, "event", ev.Kind)
		}
	}
}
