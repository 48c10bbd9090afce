// Package testutil provides in-memory stand-ins for the database and the
// mailer. The user store mirrors the atomic semantics of the MongoDB filters.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"bitwise74/recipe-api/internal/challenge"
	"bitwise74/recipe-api/internal/model"
	"bitwise74/recipe-api/internal/store"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

var (
	_ store.UserStore = (*MemoryUsers)(nil)
	_ challenge.Store = (*MemoryUsers)(nil)
)

type MemoryUsers struct {
	mu    sync.Mutex
	users map[bson.ObjectID]*model.User
}

func NewMemoryUsers() *MemoryUsers {
	return &MemoryUsers{users: make(map[bson.ObjectID]*model.User)}
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}

	v := *t
	return &v
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}

	v := *s
	return &v
}

func cloneChallenge(c *model.Challenge) *model.Challenge {
	if c == nil {
		return nil
	}

	return &model.Challenge{
		TokenHash:      cloneString(c.TokenHash),
		TokenExpiresAt: cloneTime(c.TokenExpiresAt),
		CodeHash:       cloneString(c.CodeHash),
		CodeExpiresAt:  cloneTime(c.CodeExpiresAt),
		CodeAttempts:   c.CodeAttempts,
		CodeLastSentAt: cloneTime(c.CodeLastSentAt),
		LastSentAt:     cloneTime(c.LastSentAt),
	}
}

func clone(u *model.User) *model.User {
	cp := *u
	cp.EmailVerification = cloneChallenge(u.EmailVerification)
	cp.PasswordReset = cloneChallenge(u.PasswordReset)
	cp.LastEmailChangedAt = cloneTime(u.LastEmailChangedAt)
	return &cp
}

func duplicateKey(field string) error {
	return mongo.WriteException{WriteErrors: []mongo.WriteError{{
		Code:    11000,
		Message: fmt.Sprintf("E11000 duplicate key error collection: recipes.users index: %s_1 dup key", field),
	}}}
}

// Put stores u as is, bypassing uniqueness checks. Used to seed fixtures.
func (m *MemoryUsers) Put(u *model.User) *model.User {
	m.mu.Lock()
	defer m.mu.Unlock()

	if u.ID.IsZero() {
		u.ID = bson.NewObjectID()
	}

	m.users[u.ID] = clone(u)
	return u
}

// Get returns a copy of the stored user or nil
func (m *MemoryUsers) Get(id bson.ObjectID) *model.User {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil
	}

	return clone(u)
}

func (m *MemoryUsers) Create(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if existing.Email == u.Email {
			return duplicateKey("email")
		}
		if existing.Username == u.Username {
			return duplicateKey("username")
		}
	}

	u.ID = bson.NewObjectID()
	m.users[u.ID] = clone(u)
	return nil
}

func (m *MemoryUsers) find(match func(*model.User) bool) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if match(u) {
			return clone(u), nil
		}
	}

	return nil, store.ErrNotFound
}

func (m *MemoryUsers) FindByID(_ context.Context, id bson.ObjectID) (*model.User, error) {
	return m.find(func(u *model.User) bool { return u.ID == id })
}

func (m *MemoryUsers) FindByEmail(_ context.Context, email string) (*model.User, error) {
	email = strings.ToLower(email)
	return m.find(func(u *model.User) bool { return u.Email == email })
}

func (m *MemoryUsers) FindByUsername(_ context.Context, username string) (*model.User, error) {
	return m.find(func(u *model.User) bool { return u.Username == username })
}

func (m *MemoryUsers) FindByIdentifier(_ context.Context, identifier string) (*model.User, error) {
	email := strings.ToLower(identifier)
	return m.find(func(u *model.User) bool { return u.Email == email || u.Username == identifier })
}

func (m *MemoryUsers) Update(_ context.Context, id bson.ObjectID, upd store.UserUpdate) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}

	if upd.Email != nil {
		for _, other := range m.users {
			if other.ID != id && other.Email == *upd.Email {
				return nil, duplicateKey("email")
			}
		}
	}

	upd.Apply(u, time.Now().UTC())
	return clone(u), nil
}

func (m *MemoryUsers) Delete(_ context.Context, id bson.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[id]; !ok {
		return store.ErrNotFound
	}

	delete(m.users, id)
	return nil
}

func (m *MemoryUsers) List(_ context.Context, page, limit int) ([]model.User, int64, error) {
	m.mu.Lock()
	all := make([]model.User, 0, len(m.users))
	for _, u := range m.users {
		all = append(all, *clone(u))
	}
	m.mu.Unlock()

	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	if page < 1 {
		page = 1
	}

	start := (page - 1) * limit
	if start > len(all) {
		start = len(all)
	}

	end := min(start+limit, len(all))
	return all[start:end], int64(len(all)), nil
}

// subject finds the user matched by s, callers hold mu
func (m *MemoryUsers) subject(s challenge.Subject) *model.User {
	for _, u := range m.users {
		if s.Matches(u) {
			return u
		}
	}

	return nil
}

// codeLive is liveCodeFilter evaluated in memory
func codeLive(c *model.Challenge, hash string, now time.Time, maxAttempts int) bool {
	return c != nil &&
		c.CodeHash != nil && *c.CodeHash == hash &&
		c.CodeExpiresAt != nil && c.CodeExpiresAt.After(now) &&
		c.CodeAttempts < maxAttempts
}

func consume(kind challenge.Kind, u *model.User, now time.Time) {
	kind.Set(u, nil)
	if kind == challenge.EmailVerification {
		u.EmailVerified = true
	}
	u.UpdatedAt = now
}

func (m *MemoryUsers) PutChallenge(_ context.Context, kind challenge.Kind, userID bson.ObjectID, c *model.Challenge) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return challenge.ErrNoUser
	}

	if c.Empty() {
		c = nil
	}

	kind.Set(u, cloneChallenge(c))
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemoryUsers) FindChallenge(_ context.Context, _ challenge.Kind, s challenge.Subject) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u := m.subject(s)
	if u == nil {
		return nil, nil
	}

	return clone(u), nil
}

func (m *MemoryUsers) IncrementCodeAttempts(_ context.Context, kind challenge.Kind, s challenge.Subject, storedHash string, now time.Time, maxAttempts int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u := m.subject(s)
	if u == nil {
		return false, nil
	}

	c := kind.Of(u)
	if !codeLive(c, storedHash, now, maxAttempts) {
		return false, nil
	}

	c.CodeAttempts++
	return true, nil
}

func (m *MemoryUsers) ConsumeCode(_ context.Context, kind challenge.Kind, s challenge.Subject, codeHash string, now time.Time, maxAttempts int) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u := m.subject(s)
	if u == nil || !codeLive(kind.Of(u), codeHash, now, maxAttempts) {
		return nil, nil
	}

	consume(kind, u, now)
	return clone(u), nil
}

func (m *MemoryUsers) ConsumeToken(_ context.Context, kind challenge.Kind, tokenHash string, now time.Time) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		c := kind.Of(u)
		if c == nil || c.TokenHash == nil || *c.TokenHash != tokenHash {
			continue
		}

		if c.TokenExpiresAt == nil || !c.TokenExpiresAt.After(now) {
			continue
		}

		consume(kind, u, now)
		return clone(u), nil
	}

	return nil, nil
}

// SweepChallenges mirrors Users.SweepChallenges
func (m *MemoryUsers) SweepChallenges(_ context.Context, kind challenge.Kind, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for _, u := range m.users {
		if c := kind.Of(u); c != nil && c.Stale(now) {
			kind.Set(u, nil)
			n++
		}
	}

	return n, nil
}
