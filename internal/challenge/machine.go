// Package challenge runs the token and one-time-code lifecycle behind email
// verification and password resets. Every transition is a single atomic
// write whose filter re-checks the preconditions.
package challenge

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bitwise74/recipe-api/internal/model"
	"bitwise74/recipe-api/pkg/security"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Store is the persistence the machine needs. Implementations must run each
// method as one atomic document operation.
type Store interface {
	// PutChallenge overwrites the whole record, nil unsets it
	PutChallenge(ctx context.Context, kind Kind, userID bson.ObjectID, c *model.Challenge) error

	// FindChallenge returns nil, nil when no user matches
	FindChallenge(ctx context.Context, kind Kind, s Subject) (*model.User, error)

	// IncrementCodeAttempts adds one failed attempt if the code identified by
	// storedHash is still live. It reports whether the increment happened.
	IncrementCodeAttempts(ctx context.Context, kind Kind, s Subject, storedHash string, now time.Time, maxAttempts int) (bool, error)

	// ConsumeCode unsets the record if codeHash is live, returns nil, nil otherwise
	ConsumeCode(ctx context.Context, kind Kind, s Subject, codeHash string, now time.Time, maxAttempts int) (*model.User, error)

	// ConsumeToken unsets the record of whoever owns a live tokenHash
	ConsumeToken(ctx context.Context, kind Kind, tokenHash string, now time.Time) (*model.User, error)
}

type Options struct {
	TokenEnabled   bool
	OTPEnabled     bool
	TokenTTL       time.Duration
	CodeTTL        time.Duration
	CodeLength     int
	MaxAttempts    int
	ResendCooldown time.Duration
}

func (o Options) withDefaults(k Kind) Options {
	if o.TokenTTL <= 0 {
		o.TokenTTL = time.Hour
		if k == PasswordReset {
			o.TokenTTL = 30 * time.Minute
		}
	}

	if o.CodeTTL <= 0 {
		o.CodeTTL = 15 * time.Minute
		if k == PasswordReset {
			o.CodeTTL = 10 * time.Minute
		}
	}

	if o.CodeLength <= 0 {
		o.CodeLength = security.DefaultCodeLength
	}

	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 5
	}

	return o
}

// Issued carries the plaintext secrets. They exist only here and are sent
// to the user once.
type Issued struct {
	Mode           model.Mode
	Token          string
	TokenExpiresAt time.Time
	Code           string
	CodeExpiresAt  time.Time
}

type Machine struct {
	kind  Kind
	store Store
	opts  Options
	now   func() time.Time
}

func New(kind Kind, s Store, opts Options) *Machine {
	return &Machine{
		kind:  kind,
		store: s,
		opts:  opts.withDefaults(kind),
		now:   time.Now,
	}
}

// WithClock replaces the time source, used by tests to move past expiry
func (m *Machine) WithClock(now func() time.Time) *Machine {
	m.now = now
	return m
}

func (m *Machine) Kind() Kind       { return m.kind }
func (m *Machine) Options() Options { return m.opts }

// Now is truncated to milliseconds since that's what the database keeps
func (m *Machine) Now() time.Time {
	return m.now().UTC().Truncate(time.Millisecond)
}

// Issue replaces any outstanding challenge of this kind for userID
func (m *Machine) Issue(ctx context.Context, userID bson.ObjectID) (*Issued, error) {
	now := m.Now()

	rec := &model.Challenge{}
	out := &Issued{}

	if m.opts.TokenEnabled {
		token, err := security.GenerateToken(security.DefaultTokenBytes)
		if err != nil {
			return nil, fmt.Errorf("failed to generate token, %w", err)
		}

		hash := security.HashSecret(token)
		exp := now.Add(m.opts.TokenTTL)

		rec.TokenHash = &hash
		rec.TokenExpiresAt = &exp

		out.Token = token
		out.TokenExpiresAt = exp
	}

	if m.opts.OTPEnabled {
		code, err := security.GenerateNumericCode(m.opts.CodeLength)
		if err != nil {
			return nil, fmt.Errorf("failed to generate code, %w", err)
		}

		hash := security.HashSecret(code)
		exp := now.Add(m.opts.CodeTTL)
		sent := now

		rec.CodeHash = &hash
		rec.CodeExpiresAt = &exp
		rec.CodeAttempts = 0
		rec.CodeLastSentAt = &sent

		out.Code = code
		out.CodeExpiresAt = exp
	}

	out.Mode = rec.Mode()
	if rec.Empty() {
		rec = nil
	} else {
		rec.LastSentAt = &now
	}

	if err := m.store.PutChallenge(ctx, m.kind, userID, rec); err != nil {
		return nil, fmt.Errorf("failed to store %s challenge, %w", m.kind, err)
	}

	return out, nil
}

// ConfirmByToken answers the challenge holding raw's hash. Wrong, expired and
// already used tokens all fail the same way.
func (m *Machine) ConfirmByToken(ctx context.Context, raw string) (*model.User, error) {
	token := strings.ToLower(security.NormalizeToken(raw))
	if !security.ValidTokenFormat(token) {
		return nil, ErrMalformedToken
	}

	u, err := m.store.ConsumeToken(ctx, m.kind, security.HashSecret(token), m.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to consume %s token, %w", m.kind, err)
	}

	if u == nil {
		return nil, ErrInvalidOrExpired
	}

	return u, nil
}

// ConfirmByCode checks code against the subject's outstanding code. A wrong
// guess costs one attempt, once attempts run out even the right code is
// rejected until a new one is issued.
func (m *Machine) ConfirmByCode(ctx context.Context, s Subject, code string) (*model.User, error) {
	code = strings.TrimSpace(code)
	now := m.Now()

	u, err := m.store.FindChallenge(ctx, m.kind, s)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s challenge, %w", m.kind, err)
	}

	c := m.kind.Of(u)
	if !c.CodeLive(now, m.opts.MaxAttempts) {
		return nil, ErrUnavailable
	}

	if !security.SecretMatches(code, *c.CodeHash) {
		ok, err := m.store.IncrementCodeAttempts(ctx, m.kind, s, *c.CodeHash, now, m.opts.MaxAttempts)
		if err != nil {
			return nil, fmt.Errorf("failed to count %s attempt, %w", m.kind, err)
		}

		// Reissued, consumed or expired since the read
		if !ok {
			return nil, ErrUnavailable
		}

		return nil, ErrWrongCode
	}

	u, err = m.store.ConsumeCode(ctx, m.kind, s, security.HashSecret(code), now, m.opts.MaxAttempts)
	if err != nil {
		return nil, fmt.Errorf("failed to consume %s code, %w", m.kind, err)
	}

	if u == nil {
		return nil, ErrUnavailable
	}

	return u, nil
}

// CooldownLeft is how long u has to wait before the challenge can be mailed
// again. Token-only challenges wait just like code ones.
func (m *Machine) CooldownLeft(u *model.User) time.Duration {
	sent := m.kind.Of(u).SentAt()
	if sent == nil || m.opts.ResendCooldown <= 0 {
		return 0
	}

	left := sent.Add(m.opts.ResendCooldown).Sub(m.Now())
	if left < 0 {
		return 0
	}

	return left
}
