// Package pending holds destructive operations in a confirm-or-cancel
// limbo. At most one action is outstanding; confirming, cancelling, and
// expiring all race against each other but the action's effect runs at
// most once, whichever path wins.
package pending

import (
	"time"

	"github.com/google/uuid"
)

// NoTimeout keeps an action pending until it is explicitly resolved.
// Destructive confirmations use it: they must be decided, not abandoned.
const NoTimeout time.Duration = 0

// Action is one operation awaiting a decision. The id is what makes
// resolution safe: every Confirm/Cancel call names the action it means,
// so a decision aimed at an action that has since been replaced or
// expired hits nothing.
type Action struct {
	id        string
	subject   string
	onConfirm func()
	onCancel  func()
	deadline  time.Time
	resolved  bool
}

func (a *Action) ID() string      { return a.id }
func (a *Action) Subject() string { return a.subject }

// Deadline returns the expiry time, or the zero time when the action
// has none.
func (a *Action) Deadline() time.Time { return a.deadline }

type Coordinator struct {
	active *Action
	now    func() time.Time
}

func NewCoordinator() *Coordinator {
	return &Coordinator{now: time.Now}
}

// Request parks an action and returns it. A previously pending action
// is cancelled first: asking for a new confirmation is a decision
// against the old one, not a way to stack prompts.
func (c *Coordinator) Request(subject string, timeout time.Duration, onConfirm, onCancel func()) *Action {
	if c.active != nil {
		c.resolve(c.active, c.active.onCancel)
	}
	a := &Action{
		id:        uuid.NewString(),
		subject:   subject,
		onConfirm: onConfirm,
		onCancel:  onCancel,
	}
	if timeout > 0 {
		a.deadline = c.now().Add(timeout)
	}
	c.active = a
	return a
}

// Active returns the pending action, or nil.
func (c *Coordinator) Active() *Action { return c.active }

// Confirm runs the confirmed effect, provided id still names the
// pending action. A repeated confirm, or one that lost the race against
// cancel or expiry, does nothing.
func (c *Coordinator) Confirm(id string) bool {
	a := c.match(id)
	if a == nil {
		return false
	}
	c.resolve(a, a.onConfirm)
	return true
}

// Cancel dismisses the pending action and runs its cancel effect.
func (c *Coordinator) Cancel(id string) bool {
	a := c.match(id)
	if a == nil {
		return false
	}
	c.resolve(a, a.onCancel)
	return true
}

// ExpireDue cancels the pending action if its deadline has passed. The
// caller drives this from its tick; there are no timers in here, so a
// decision applied just before the tick always wins.
func (c *Coordinator) ExpireDue(at time.Time) bool {
	a := c.active
	if a == nil || a.deadline.IsZero() || at.Before(a.deadline) {
		return false
	}
	c.resolve(a, a.onCancel)
	return true
}

func (c *Coordinator) match(id string) *Action {
	if c.active == nil || c.active.resolved || c.active.id != id {
		return nil
	}
	return c.active
}

func (c *Coordinator) resolve(a *Action, effect func()) {
	if a.resolved {
		return
	}
	a.resolved = true
	if c.active == a {
		c.active = nil
	}
	if effect != nil {
		effect()
	}
}
