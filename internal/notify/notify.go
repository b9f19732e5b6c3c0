// Package notify is the feedback channel: short-lived success, error and
// info toasts plus loading indicators that stay until dismissed.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bugboard/bugboard/internal/logging"
)

type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindLoading Kind = "loading"
	KindInfo    Kind = "info"
)

var defaultDurations = map[Kind]time.Duration{
	KindSuccess: 3000 * time.Millisecond,
	KindError:   5000 * time.Millisecond,
	KindInfo:    3000 * time.Millisecond,
}

// DefaultDuration is how long a notification of kind k stays up. Loading
// notifications have no timeout and return 0.
func DefaultDuration(k Kind) time.Duration { return defaultDurations[k] }

func (k Kind) Valid() bool {
	switch k {
	case KindSuccess, KindError, KindLoading, KindInfo:
		return true
	}
	return false
}

var ErrInvalidKind = errors.New("invalid notification kind")

type Notification struct {
	ID        string        `json:"id"`
	Kind      Kind          `json:"type"`
	Message   string        `json:"message"`
	Duration  time.Duration `json:"-"`
	CreatedAt time.Time     `json:"createdAt"`
}

type notificationJSON struct {
	ID         string    `json:"id"`
	Kind       Kind      `json:"type"`
	Message    string    `json:"message"`
	DurationMs int64     `json:"durationMs,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// MarshalJSON writes the duration as durationMs.
func (n Notification) MarshalJSON() ([]byte, error) {
	return json.Marshal(notificationJSON{
		ID:         n.ID,
		Kind:       n.Kind,
		Message:    n.Message,
		DurationMs: n.Duration.Milliseconds(),
		CreatedAt:  n.CreatedAt,
	})
}

func (n *Notification) UnmarshalJSON(data []byte) error {
	var v notificationJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = Notification{
		ID:        v.ID,
		Kind:      v.Kind,
		Message:   v.Message,
		Duration:  time.Duration(v.DurationMs) * time.Millisecond,
		CreatedAt: v.CreatedAt,
	}
	return nil
}

// ExpiresAt is the zero time for notifications that never expire.
func (n Notification) ExpiresAt() time.Time {
	if n.Duration <= 0 {
		return time.Time{}
	}
	return n.CreatedAt.Add(n.Duration)
}

// Store keeps notifications per scope and drops each one when its duration
// elapses.
type Store interface {
	Add(ctx context.Context, scope string, n Notification) error
	Remove(ctx context.Context, scope, id string) error
	List(ctx context.Context, scope string) ([]Notification, error)
}

// Center is one notification channel, e.g. one browser session.
type Center struct {
	store Store
	scope string
	now   func() time.Time
}

func NewCenter(store Store, scope string) *Center {
	return &Center{store: store, scope: scope, now: time.Now}
}

// Handle dismisses one notification.
type Handle struct {
	id     string
	center *Center
}

func (h Handle) ID() string { return h.id }

// Dismiss removes the notification. Dismissing twice is harmless.
func (h Handle) Dismiss(ctx context.Context) error {
	if h.center == nil || h.id == "" {
		return nil
	}
	return h.center.Dismiss(ctx, h.id)
}

// Show publishes a notification. A non-positive duration picks the kind's
// default; loading notifications ignore duration and never time out.
func (c *Center) Show(ctx context.Context, kind Kind, message string, duration time.Duration) (Handle, error) {
	if !kind.Valid() {
		return Handle{}, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}
	switch {
	case kind == KindLoading:
		duration = 0
	case duration <= 0:
		duration = DefaultDuration(kind)
	}
	n := Notification{
		ID:        uuid.NewString(),
		Kind:      kind,
		Message:   message,
		Duration:  duration,
		CreatedAt: c.now(),
	}
	if err := c.store.Add(ctx, c.scope, n); err != nil {
		return Handle{}, fmt.Errorf("add notification: %w", err)
	}
	return Handle{id: n.ID, center: c}, nil
}

// show is Show for callers that cannot do anything useful with the error.
// A nil Center drops everything.
func (c *Center) show(ctx context.Context, kind Kind, message string) Handle {
	if c == nil {
		return Handle{}
	}
	h, err := c.Show(ctx, kind, message, 0)
	if err != nil {
		logging.FromContext(ctx).LogError("notify", err)
	}
	return h
}

func (c *Center) Success(ctx context.Context, message string) { c.show(ctx, KindSuccess, message) }
func (c *Center) Error(ctx context.Context, message string)   { c.show(ctx, KindError, message) }
func (c *Center) Info(ctx context.Context, message string)    { c.show(ctx, KindInfo, message) }

// Loading shows a notification that stays until the handle is dismissed.
func (c *Center) Loading(ctx context.Context, message string) Handle {
	return c.show(ctx, KindLoading, message)
}

func (c *Center) Dismiss(ctx context.Context, id string) error {
	if err := c.store.Remove(ctx, c.scope, id); err != nil {
		return fmt.Errorf("dismiss notification: %w", err)
	}
	return nil
}

// Active lists the notifications still showing, oldest first.
func (c *Center) Active(ctx context.Context) ([]Notification, error) {
	list, err := c.store.List(ctx, c.scope)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return list, nil
}

// userMessage is implemented by errors that carry text fit for the user,
// such as the API's own error message.
type userMessage interface {
	UserMessage() string
}

// FailureText picks the user-facing text for err: the error's own message
// when it has one, else fallback.
func FailureText(err error, fallback string) string {
	var um userMessage
	if errors.As(err, &um) {
		if m := um.UserMessage(); m != "" {
			return m
		}
	}
	return fallback
}

// Track wraps fn with the pending, success and failure messages of m. The
// loading notification is always dismissed before the outcome is shown.
func (c *Center) Track(ctx context.Context, m Messages, fn func(context.Context) error) error {
	if c == nil {
		return fn(ctx)
	}
	h := c.Loading(ctx, m.Pending)
	err := fn(ctx)
	if derr := h.Dismiss(ctx); derr != nil {
		logging.FromContext(ctx).LogError("notify_dismiss", derr)
	}
	if err != nil {
		c.Error(ctx, FailureText(err, m.Failure))
		return err
	}
	if m.Success != "" {
		c.Success(ctx, m.Success)
	}
	return nil
}
