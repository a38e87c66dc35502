package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	domainauth "tinyhouse/internal/domain/auth"
	domainuser "tinyhouse/internal/domain/user"
)

// UserRepository stores users in memory. Not suitable for production.
type UserRepository struct {
	mu   sync.RWMutex
	byID map[domainuser.ID]*domainuser.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID: make(map[domainuser.ID]*domainuser.User),
	}
}

func (r *UserRepository) ByID(ctx context.Context, id domainuser.ID) (*domainuser.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if user, ok := r.byID[id]; ok {
		return user.Clone(), nil
	}
	return nil, domainuser.ErrNotFound
}

func (r *UserRepository) Save(ctx context.Context, user *domainuser.User) error {
	if user == nil || strings.TrimSpace(string(user.ID)) == "" {
		return domainuser.ErrIDRequired
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[user.ID] = user.Clone()
	return nil
}

func (r *UserRepository) AddIncome(ctx context.Context, id domainuser.ID, amount int64) error {
	if amount <= 0 {
		return domainuser.ErrInvalidDelta
	}
	return r.update(id, func(u *domainuser.User) {
		u.Income += amount
	})
}

func (r *UserRepository) AppendBooking(ctx context.Context, id domainuser.ID, bookingID string) error {
	return r.update(id, func(u *domainuser.User) {
		u.Bookings = append(u.Bookings, bookingID)
	})
}

func (r *UserRepository) AppendListing(ctx context.Context, id domainuser.ID, listingID string) error {
	return r.update(id, func(u *domainuser.User) {
		u.Listings = append(u.Listings, listingID)
	})
}

func (r *UserRepository) SetWallet(ctx context.Context, id domainuser.ID, walletID string) error {
	return r.update(id, func(u *domainuser.User) {
		u.WalletID = strings.TrimSpace(walletID)
	})
}

// update applies fn to the stored record under the write lock.
func (r *UserRepository) update(id domainuser.ID, fn func(u *domainuser.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.byID[id]
	if !ok {
		return domainuser.ErrNotFound
	}
	fn(user)
	user.UpdatedAt = time.Now().UTC()
	return nil
}

var _ domainuser.Repository = (*UserRepository)(nil)

// SessionStore keeps bearer sessions in memory.
type SessionStore struct {
	mu     sync.RWMutex
	tokens map[domainauth.Token]*domainauth.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		tokens: make(map[domainauth.Token]*domainauth.Session),
	}
}

func (s *SessionStore) Save(ctx context.Context, session *domainauth.Session) error {
	if session == nil {
		return domainauth.ErrTokenRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	copySession := *session
	s.tokens[session.Token] = &copySession
	return nil
}

func (s *SessionStore) Get(ctx context.Context, token domainauth.Token) (*domainauth.Session, error) {
	s.mu.RLock()
	session, ok := s.tokens[token]
	s.mu.RUnlock()
	if !ok {
		return nil, domainauth.ErrSessionNotFound
	}
	if session.Expired(time.Now()) {
		_ = s.Delete(ctx, token)
		return nil, domainauth.ErrSessionNotFound
	}
	copySession := *session
	return &copySession, nil
}

func (s *SessionStore) Delete(ctx context.Context, token domainauth.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
	return nil
}

var _ domainauth.SessionStore = (*SessionStore)(nil)
