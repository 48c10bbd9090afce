package model

import "time"

// Challenge is an outstanding proof of mailbox ownership. The token and the
// code are two independent ways of answering it; both live in one record so a
// success through either clears the other.
type Challenge struct {
	TokenHash      *string    `bson:"tokenHash"`
	TokenExpiresAt *time.Time `bson:"tokenExpiresAt"`

	CodeHash       *string    `bson:"codeHash"`
	CodeExpiresAt  *time.Time `bson:"codeExpiresAt"`
	CodeAttempts   int        `bson:"codeAttempts"`
	CodeLastSentAt *time.Time `bson:"codeLastSentAt"`

	// LastSentAt is stamped on every issue whichever modes are on
	LastSentAt *time.Time `bson:"lastSentAt,omitempty"`
}

// SentAt is when the challenge was last mailed out
func (c *Challenge) SentAt() *time.Time {
	if c == nil {
		return nil
	}

	if c.LastSentAt != nil {
		return c.LastSentAt
	}

	return c.CodeLastSentAt
}

type Mode int

const (
	ModeNone Mode = iota
	ModeToken
	ModeCode
	ModeBoth
)

func (m Mode) String() string {
	switch m {
	case ModeToken:
		return "token"
	case ModeCode:
		return "code"
	case ModeBoth:
		return "both"
	default:
		return "none"
	}
}

func (m Mode) HasToken() bool { return m == ModeToken || m == ModeBoth }
func (m Mode) HasCode() bool  { return m == ModeCode || m == ModeBoth }

type State int

const (
	StateNone State = iota
	StateIssued
	StateExpired
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateIssued:
		return "issued"
	case StateExpired:
		return "expired"
	case StateExhausted:
		return "exhausted"
	default:
		return "none"
	}
}

// Mode reports which sub-modes were issued, regardless of expiry
func (c *Challenge) Mode() Mode {
	if c == nil {
		return ModeNone
	}

	token := c.TokenHash != nil
	code := c.CodeHash != nil

	switch {
	case token && code:
		return ModeBoth
	case token:
		return ModeToken
	case code:
		return ModeCode
	default:
		return ModeNone
	}
}

// Empty is true when neither sub-mode was issued. Such records are never
// stored, they are unset instead.
func (c *Challenge) Empty() bool {
	return c.Mode() == ModeNone
}

func (c *Challenge) TokenState(now time.Time) State {
	if c == nil || c.TokenHash == nil {
		return StateNone
	}

	if c.TokenExpiresAt == nil || !c.TokenExpiresAt.After(now) {
		return StateExpired
	}

	return StateIssued
}

// CodeState checks expiry before attempts so an expired code never reports
// exhaustion.
func (c *Challenge) CodeState(now time.Time, maxAttempts int) State {
	if c == nil || c.CodeHash == nil {
		return StateNone
	}

	if c.CodeExpiresAt == nil || !c.CodeExpiresAt.After(now) {
		return StateExpired
	}

	if c.CodeAttempts >= maxAttempts {
		return StateExhausted
	}

	return StateIssued
}

func (c *Challenge) TokenLive(now time.Time) bool {
	return c.TokenState(now) == StateIssued
}

func (c *Challenge) CodeLive(now time.Time, maxAttempts int) bool {
	return c.CodeState(now, maxAttempts) == StateIssued
}

// Stale reports whether every issued sub-mode has passed its expiry
func (c *Challenge) Stale(now time.Time) bool {
	if c.Empty() {
		return false
	}

	if c.TokenState(now) == StateIssued {
		return false
	}

	if c.CodeHash != nil && c.CodeExpiresAt != nil && c.CodeExpiresAt.After(now) {
		return false
	}

	return true
}
