// Package audit defines the append-only audit trail: who did what to which
// resource, with what outcome. Every mutation attempt produces exactly one
// Entry per audit call; stores only ever append.
package audit

import (
	"context"
	"encoding/json"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"avd/pkg/domain"
)

// Context identifies one mutation attempt. It is built once per request,
// before the handler runs, and never changes afterwards.
type Context struct {
	actorID    domain.UserID
	actorName  string
	actorEmail string
	action     string
	resource   string
	resourceID string
}

// NewContext captures the actor and the dotted action name. The resource is the
// first segment of the action ("employees.update" -> "employees").
func NewContext(actor *domain.Actor, action, resourceID string) Context {
	c := Context{
		action:     strings.TrimSpace(action),
		resourceID: strings.TrimSpace(resourceID),
	}
	c.resource, _, _ = strings.Cut(c.action, ".")
	if actor != nil {
		c.actorID = actor.ID
		c.actorName = actor.Name
		c.actorEmail = actor.Email
	}
	return c
}

// WithResourceID returns a copy of c pointing at a concrete resource.
func (c Context) WithResourceID(id string) Context {
	c.resourceID = strings.TrimSpace(id)
	return c
}

// WithAction returns a copy of c under a different action label on the same resource.
func (c Context) WithAction(action string) Context {
	c.action = action
	return c
}

func (c Context) ActorID() domain.UserID { return c.actorID }
func (c Context) ActorName() string      { return c.actorName }
func (c Context) ActorEmail() string     { return c.actorEmail }
func (c Context) Action() string         { return c.action }
func (c Context) Resource() string       { return c.resource }
func (c Context) ResourceID() string     { return c.resourceID }

// Details is the outcome half of an entry. Values are serialized to JSON by
// the logger; nil means "not captured".
type Details struct {
	OldValue     any
	NewValue     any
	Success      bool
	ErrorMessage string
}

// Entry is the persisted audit record. Its field set is the exported shape
// external tooling depends on.
type Entry struct {
	ID           uuid.UUID       `json:"id"`
	ActorID      domain.UserID   `json:"actor_id"`
	ActorName    string          `json:"actor_name,omitempty"`
	ActorEmail   string          `json:"actor_email,omitempty"`
	Action       string          `json:"action"`
	Resource     string          `json:"resource"`
	ResourceID   string          `json:"resource_id,omitempty"`
	OldValue     json.RawMessage `json:"old_value,omitempty"`
	NewValue     json.RawMessage `json:"new_value,omitempty"`
	Success      bool            `json:"success"`
	ErrorMessage string          `json:"error_message,omitempty"`
	Timestamp    time.Time       `json:"timestamp"`
	IPAddress    string          `json:"ip_address,omitempty"`
	UserAgent    string          `json:"user_agent,omitempty"`
	Client       string          `json:"client,omitempty"`
	RequestID    string          `json:"request_id,omitempty"`
	Digest       string          `json:"digest"`
}

// NewEntry stamps the context fields onto a fresh entry.
func NewEntry(c Context, ts time.Time) Entry {
	return Entry{
		ID:         uuid.New(),
		ActorID:    c.actorID,
		ActorName:  c.actorName,
		ActorEmail: c.actorEmail,
		Action:     c.action,
		Resource:   c.resource,
		ResourceID: c.resourceID,
		Timestamp:  ts.UTC().Truncate(time.Microsecond),
	}
}

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// Filter selects entries for the read surface. Zero values mean "any".
type Filter struct {
	ActorID    domain.UserID
	Actions    []string
	Resource   string
	ResourceID string
	Success    *bool
	From       time.Time
	To         time.Time
	Limit      int
	Offset     int
}

// Normalize clamps pagination to sane bounds.
func (f Filter) Normalize() Filter {
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// Matches reports whether e satisfies every populated criterion of f.
func (f Filter) Matches(e Entry) bool {
	if !f.ActorID.IsZero() && e.ActorID != f.ActorID {
		return false
	}
	if len(f.Actions) > 0 && !slices.Contains(f.Actions, e.Action) {
		return false
	}
	if f.Resource != "" && e.Resource != f.Resource {
		return false
	}
	if f.ResourceID != "" && e.ResourceID != f.ResourceID {
		return false
	}
	if f.Success != nil && e.Success != *f.Success {
		return false
	}
	if !f.From.IsZero() && e.Timestamp.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && e.Timestamp.After(f.To) {
		return false
	}
	return true
}

// Sink accepts entries. Kafka and other fan-out targets only implement this.
type Sink interface {
	Append(ctx context.Context, entry Entry) error
}

// Store is an append-only, queryable audit trail. List returns entries newest first.
// Latest returns sentinel.ErrNotFound when the resource has no entries.
type Store interface {
	Sink
	List(ctx context.Context, filter Filter) ([]Entry, error)
	Latest(ctx context.Context, resource, resourceID string) (*Entry, error)
}
