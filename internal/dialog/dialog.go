// Package dialog tracks multi-step admin flows: an admin picks an action, and
// the next message they send supplies its input.
package dialog

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"pointshop/internal/domain"
)

type Action string

const (
	ActionAddCodes          Action = "add_codes"
	ActionRemoveCodes       Action = "remove_codes"
	ActionSetCost           Action = "set_cost"
	ActionSetReferralReward Action = "set_referral_reward"
	ActionSetDailyLimit     Action = "set_daily_limit"
)

const DefaultTTL = 10 * time.Minute

var (
	ErrNoPendingAction = errors.New("dialog: no pending action")
	ErrUnknownAction   = errors.New("dialog: unknown action")
	ErrInvalidClass    = errors.New("dialog: invalid coupon class")
	ErrInvalidInput    = errors.New("dialog: invalid input")
)

func (a Action) needsClass() bool {
	return a == ActionAddCodes || a == ActionRemoveCodes || a == ActionSetCost
}

func (a Action) numeric() bool {
	return a == ActionSetCost || a == ActionSetReferralReward || a == ActionSetDailyLimit
}

func (a Action) valid() bool {
	switch a {
	case ActionAddCodes, ActionRemoveCodes, ActionSetCost, ActionSetReferralReward, ActionSetDailyLimit:
		return true
	}
	return false
}

// Pending is the action an admin is expected to complete next.
type Pending struct {
	Action    Action    `json:"action"`
	Class     string    `json:"class,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Applier performs the admin mutations a dialog can end in.
type Applier interface {
	AddCoupons(ctx context.Context, adminID int64, class string, codes []string) (int64, int64, error)
	RemoveCoupons(ctx context.Context, adminID int64, class string, codes []string) (int64, int64, error)
	SetCost(ctx context.Context, adminID int64, class string, cost int64) error
	SetReferralReward(ctx context.Context, adminID int64, reward int64) error
	SetDailyLimit(ctx context.Context, adminID int64, limit int64) error
}

// Result describes what a completed dialog changed.
type Result struct {
	Action Action `json:"action"`
	Class  string `json:"class,omitempty"`
	Count  int64  `json:"count,omitempty"`
	Stock  int64  `json:"stock,omitempty"`
	Value  int64  `json:"value,omitempty"`
}

// Machine holds at most one pending action per admin.
type Machine struct {
	mu      sync.Mutex
	pending map[int64]Pending
	applier Applier
	ttl     time.Duration
	now     func() time.Time
}

func NewMachine(applier Applier, ttl time.Duration) *Machine {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Machine{
		pending: make(map[int64]Pending),
		applier: applier,
		ttl:     ttl,
		now:     time.Now,
	}
}

func (m *Machine) SetClock(now func() time.Time) { m.now = now }

// Begin records action as adminID's next step, replacing any earlier one.
func (m *Machine) Begin(adminID int64, action Action, class string) (Pending, error) {
	if !action.valid() {
		return Pending{}, ErrUnknownAction
	}
	if action.needsClass() {
		if !domain.ValidClass(class) {
			return Pending{}, ErrInvalidClass
		}
	} else {
		class = ""
	}
	p := Pending{Action: action, Class: class, ExpiresAt: m.now().Add(m.ttl)}
	m.mu.Lock()
	m.pending[adminID] = p
	m.mu.Unlock()
	return p, nil
}

// Current returns the live pending action for adminID.
func (m *Machine) Current(adminID int64) (Pending, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.live(adminID)
}

func (m *Machine) Cancel(adminID int64) {
	m.mu.Lock()
	delete(m.pending, adminID)
	m.mu.Unlock()
}

// Input completes the pending action with text. Malformed input leaves the
// action pending so the admin can resend; otherwise the action is cleared
// before it is applied.
func (m *Machine) Input(ctx context.Context, adminID int64, text string) (*Result, error) {
	m.mu.Lock()
	p, ok := m.live(adminID)
	if !ok {
		m.mu.Unlock()
		return nil, ErrNoPendingAction
	}
	var (
		codes []string
		value int64
	)
	if p.Action.numeric() {
		n, err := parseDigits(text)
		if err != nil {
			m.mu.Unlock()
			return nil, err
		}
		value = n
	} else {
		codes = splitCodes(text)
		if len(codes) == 0 {
			m.mu.Unlock()
			return nil, ErrInvalidInput
		}
	}
	delete(m.pending, adminID)
	m.mu.Unlock()

	res := &Result{Action: p.Action, Class: p.Class, Value: value}
	var err error
	switch p.Action {
	case ActionAddCodes:
		res.Count, res.Stock, err = m.applier.AddCoupons(ctx, adminID, p.Class, codes)
	case ActionRemoveCodes:
		res.Count, res.Stock, err = m.applier.RemoveCoupons(ctx, adminID, p.Class, codes)
	case ActionSetCost:
		err = m.applier.SetCost(ctx, adminID, p.Class, value)
	case ActionSetReferralReward:
		err = m.applier.SetReferralReward(ctx, adminID, value)
	case ActionSetDailyLimit:
		err = m.applier.SetDailyLimit(ctx, adminID, value)
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Sweep drops expired actions and reports how many it removed.
func (m *Machine) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	n := 0
	for id, p := range m.pending {
		if !now.Before(p.ExpiresAt) {
			delete(m.pending, id)
			n++
		}
	}
	return n
}

// live must be called with mu held.
func (m *Machine) live(adminID int64) (Pending, bool) {
	p, ok := m.pending[adminID]
	if !ok {
		return Pending{}, false
	}
	if !m.now().Before(p.ExpiresAt) {
		delete(m.pending, adminID)
		return Pending{}, false
	}
	return p, true
}

func parseDigits(text string) (int64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, ErrInvalidInput
	}
	for _, r := range text {
		if r < '0' || r > '9' {
			return 0, ErrInvalidInput
		}
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, ErrInvalidInput
	}
	return n, nil
}

func splitCodes(text string) []string {
	var out []string
	for _, line := range strings.FieldsFunc(text, func(r rune) bool { return r == '\n' || r == '\r' }) {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
