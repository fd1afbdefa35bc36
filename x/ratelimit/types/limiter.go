package types

import (
	"time"

	"cosmossdk.io/math"

	"github.com/paw-chain/dexguard/x/shared/fixedpoint"
)

// State is the limiter state machine position.
type State int

const (
	StateNormal State = iota
	StateTriggered
)

func (s State) String() string {
	switch s {
	case StateNormal:
		return "normal"
	case StateTriggered:
		return "triggered"
	default:
		return "unknown"
	}
}

// Config is the tunable part of a limiter.
type Config struct {
	Threshold math.Int      `json:"threshold"`
	Window    time.Duration `json:"window"`
	Cooldown  time.Duration `json:"cooldown"`
}

// Validate checks the config can drive a limiter.
func (c Config) Validate() error {
	if c.Threshold.IsNil() || c.Threshold.IsNegative() {
		return ErrInvalidConfig.Wrap("threshold must be non-negative")
	}
	if c.Window <= 0 {
		return ErrInvalidConfig.Wrapf("window %s must be positive", c.Window)
	}
	if c.Cooldown < 0 {
		return ErrInvalidConfig.Wrapf("cooldown %s cannot be negative", c.Cooldown)
	}
	return nil
}

// Limiter tracks the magnitude of change for one identifier over fixed
// windows. The window covering now is [WindowStart, WindowStart+Window).
//
// Cooldown expiry is evaluated lazily on every read and write; nothing runs
// in the background.
type Limiter struct {
	Identifier  string     `json:"identifier"`
	Config      Config     `json:"config"`
	WindowStart time.Time  `json:"window_start"`
	Accumulated math.Int   `json:"accumulated"`
	TriggeredAt *time.Time `json:"triggered_at,omitempty"`
	Overridden  bool       `json:"overridden"`

	// LastTriggeredAt survives cooldown expiry and overrides.
	LastTriggeredAt *time.Time `json:"last_triggered_at,omitempty"`
}

// NewLimiter returns a limiter in the Normal state with an empty window.
func NewLimiter(identifier string, cfg Config) Limiter {
	return Limiter{
		Identifier:  identifier,
		Config:      cfg,
		Accumulated: math.ZeroInt(),
	}
}

// Validate checks the stored limiter is well-formed.
func (l Limiter) Validate() error {
	if l.Identifier == "" {
		return ErrInvalidIdentifier.Wrap("identifier cannot be empty")
	}
	if err := l.Config.Validate(); err != nil {
		return err
	}
	if err := fixedpoint.Validate(l.Accumulated); err != nil {
		return ErrInvalidConfig.Wrapf("limiter %s accumulated: %s", l.Identifier, err)
	}
	return nil
}

// RetryAt is the instant the current trigger stops limiting. It is the zero
// time when the limiter is not triggered.
func (l Limiter) RetryAt() time.Time {
	if l.TriggeredAt == nil {
		return time.Time{}
	}
	return l.TriggeredAt.Add(l.Config.Cooldown)
}

// State returns the state machine position at now, applying lazy cooldown expiry.
func (l Limiter) State(now time.Time) State {
	if l.TriggeredAt == nil || !now.Before(l.RetryAt()) {
		return StateNormal
	}
	return StateTriggered
}

// IsLimited reports whether the limiter blocks activity at now.
func (l Limiter) IsLimited(now time.Time) bool {
	return l.State(now) == StateTriggered && !l.Overridden
}

// windowExpired reports whether now falls outside the current window.
// The boundary instant WindowStart+Window already belongs to the next window.
func (l Limiter) windowExpired(now time.Time) bool {
	return !now.Before(l.WindowStart.Add(l.Config.Window))
}

// Expire applies the Triggered -> Normal transition when the cooldown has
// elapsed. The expired trigger's window is discarded with it. Returns whether
// a transition happened.
func (l *Limiter) Expire(now time.Time) bool {
	if l.TriggeredAt == nil || now.Before(l.RetryAt()) {
		return false
	}
	l.TriggeredAt = nil
	l.WindowStart = time.Time{}
	l.Accumulated = math.ZeroInt()
	return true
}

// Record adds |delta| to the current window, starting a new window first when
// the current one has expired. It returns true when this call moved the
// limiter from Normal to Triggered.
func (l *Limiter) Record(delta math.Int, now time.Time) (bool, error) {
	if delta.IsNil() {
		return false, ErrInvalidConfig.Wrap("delta is nil")
	}
	l.Expire(now)
	if l.Accumulated.IsNil() || l.windowExpired(now) {
		l.WindowStart = now
		l.Accumulated = math.ZeroInt()
	}

	acc, err := fixedpoint.Add(l.Accumulated, delta.Abs())
	if err != nil {
		return false, err
	}
	l.Accumulated = acc

	if l.TriggeredAt == nil && !l.Overridden && l.Accumulated.GT(l.Config.Threshold) {
		at := now
		l.TriggeredAt = &at
		last := now
		l.LastTriggeredAt = &last
		return true, nil
	}
	return false, nil
}

// Override forces the limiter Normal and keeps it there until RevokeOverride.
func (l *Limiter) Override() {
	l.Overridden = true
	l.TriggeredAt = nil
}

// RevokeOverride restores threshold enforcement from the next Record on.
func (l *Limiter) RevokeOverride() {
	l.Overridden = false
}

// TimeUntilReset returns how long until the limiter stops limiting, or, when
// it is not limited, how long until the current window closes.
func (l Limiter) TimeUntilReset(now time.Time) time.Duration {
	if l.IsLimited(now) {
		return l.RetryAt().Sub(now)
	}
	if l.WindowStart.IsZero() || l.windowExpired(now) {
		return 0
	}
	return l.WindowStart.Add(l.Config.Window).Sub(now)
}

// Status is a read-only snapshot of a limiter at a point in time.
type Status struct {
	Identifier     string        `json:"identifier"`
	State          string        `json:"state"`
	Limited        bool          `json:"limited"`
	Overridden     bool          `json:"overridden"`
	Accumulated    math.Int      `json:"accumulated"`
	Threshold      math.Int      `json:"threshold"`
	Window         time.Duration `json:"window"`
	Cooldown       time.Duration `json:"cooldown"`
	WindowStart    time.Time     `json:"window_start"`
	LastTriggered  *time.Time    `json:"last_triggered,omitempty"`
	RetryAt        *time.Time    `json:"retry_at,omitempty"`
	TimeUntilReset time.Duration `json:"time_until_reset"`
}

// StatusAt builds a Status for now.
func (l Limiter) StatusAt(now time.Time) Status {
	s := Status{
		Identifier:     l.Identifier,
		State:          l.State(now).String(),
		Limited:        l.IsLimited(now),
		Overridden:     l.Overridden,
		Accumulated:    l.Accumulated,
		Threshold:      l.Config.Threshold,
		Window:         l.Config.Window,
		Cooldown:       l.Config.Cooldown,
		WindowStart:    l.WindowStart,
		LastTriggered:  l.LastTriggeredAt,
		TimeUntilReset: l.TimeUntilReset(now),
	}
	if s.Limited {
		at := l.RetryAt()
		s.RetryAt = &at
	}
	if l.WindowStart.IsZero() || l.windowExpired(now) {
		s.Accumulated = math.ZeroInt()
	}
	return s
}
