package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	authdomain "github.com/bugboard/bugboard/internal/auth/domain"
)

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

func (p Priority) Valid() bool {
	for _, v := range Priorities {
		if p == v {
			return true
		}
	}
	return false
}

type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in-progress"
	StatusResolved   Status = "resolved"
	StatusClosed     Status = "closed"
	StatusPending    Status = "pending"
)

var Statuses = []Status{StatusOpen, StatusInProgress, StatusResolved, StatusClosed, StatusPending}

func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// Label renders the status for display, e.g. "in-progress" -> "In Progress".
func (s Status) Label() string {
	parts := strings.Split(string(s), "-")
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, " ")
}

// ProjectRef is the bug's project, which the API sends either as a bare id
// or as a populated {_id, name} object.
type ProjectRef struct {
	ID   string `json:"_id"`
	Name string `json:"name,omitempty"`
}

func (r *ProjectRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		return json.Unmarshal(b, &r.ID)
	}
	var raw struct {
		ID    string `json:"_id"`
		AltID string `json:"id"`
		Name  string `json:"name"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("decode project ref: %w", err)
	}
	r.ID, r.Name = raw.ID, raw.Name
	if r.ID == "" {
		r.ID = raw.AltID
	}
	return nil
}

// Bug is the authoritative server copy of a bug. History and comments are
// kept in the order the server returned them.
type Bug struct {
	ID          string           `json:"_id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Priority    Priority         `json:"priority"`
	Status      Status           `json:"status"`
	AssignedTo  *authdomain.User `json:"assignedTo,omitempty"`
	ReportedBy  *authdomain.User `json:"reportedBy,omitempty"`
	Project     ProjectRef       `json:"project"`
	History     []HistoryEntry   `json:"history"`
	Comments    []Comment        `json:"comments"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

func (b *Bug) UnmarshalJSON(data []byte) error {
	type alias Bug
	var raw struct {
		alias
		AltID string `json:"id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*b = Bug(raw.alias)
	if b.ID == "" {
		b.ID = raw.AltID
	}
	return nil
}

// IsAssignedTo reports whether userID currently holds the assignment.
func (b *Bug) IsAssignedTo(userID string) bool {
	return b != nil && b.AssignedTo != nil && userID != "" && b.AssignedTo.ID == userID
}

// HistoryEntry is one server-recorded change. Old and new values are
// arbitrary JSON: strings for status and priority, user refs or ids for
// assignment.
type HistoryEntry struct {
	ID        string           `json:"_id,omitempty"`
	Field     string           `json:"field"`
	OldValue  any              `json:"oldValue"`
	NewValue  any              `json:"newValue"`
	ChangedBy *authdomain.User `json:"changedBy,omitempty"`
	ChangedAt time.Time        `json:"changedAt"`
	Comment   string           `json:"comment,omitempty"`
}

// FormatValue renders a history value for display.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "none"
	case string:
		if t == "" {
			return "none"
		}
		return t
	case map[string]any:
		for _, k := range []string{"name", "email", "_id", "id"} {
			if s, ok := t[k].(string); ok && s != "" {
				return s
			}
		}
	}
	return fmt.Sprint(v)
}

type Comment struct {
	ID        string           `json:"_id,omitempty"`
	Author    *authdomain.User `json:"author,omitempty"`
	Content   string           `json:"content"`
	CreatedAt time.Time        `json:"createdAt"`
}

type ActivityKind string

const (
	ActivityChange  ActivityKind = "change"
	ActivityComment ActivityKind = "comment"
)

// Activity is a display-only merge of history and comments.
type Activity struct {
	Kind    ActivityKind
	At      time.Time
	Actor   *authdomain.User
	Change  *HistoryEntry
	Comment *Comment
}

// Activity returns history and comments merged most recent first. The bug
// itself is left untouched.
func (b *Bug) Activity() []Activity {
	if b == nil {
		return nil
	}
	out := make([]Activity, 0, len(b.History)+len(b.Comments))
	for i := range b.History {
		h := &b.History[i]
		out = append(out, Activity{Kind: ActivityChange, At: h.ChangedAt, Actor: h.ChangedBy, Change: h})
	}
	for i := range b.Comments {
		c := &b.Comments[i]
		out = append(out, Activity{Kind: ActivityComment, At: c.CreatedAt, Actor: c.Author, Comment: c})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].At.After(out[j].At) })
	return out
}

// ListResult is the page returned by the list endpoint.
type ListResult struct {
	Bugs       []Bug `json:"bugs"`
	TotalCount int   `json:"totalCount"`
}

type CreateInput struct {
	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description"`
	Priority    Priority `json:"priority,omitempty" validate:"omitempty,oneof=low medium high critical"`
	Status      Status   `json:"status,omitempty" validate:"omitempty,oneof=open in-progress resolved closed pending"`
	AssignedTo  string   `json:"assignedTo,omitempty"`
	Project     string   `json:"project"`
	ReportedBy  string   `json:"reportedBy,omitempty"`
}

type UpdateInput struct {
	Priority      Priority `json:"priority,omitempty" validate:"omitempty,oneof=low medium high critical"`
	Status        Status   `json:"status,omitempty" validate:"omitempty,oneof=open in-progress resolved closed pending"`
	StatusComment string   `json:"statusComment,omitempty"`
}
