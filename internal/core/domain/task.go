package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Task is a single actionable item. It is owned by exactly one user (the
// creator) and may be visible to other users through sharing. Identity is the
// UUID assigned at creation: two Task values loaded for different sessions
// represent the same task when their ids match.
//
// The done flag is authoritative. Replacing or toggling activities recomputes
// it as a side effect (all activities complete marks the task done, any
// incomplete activity marks it not done); with no activities the flag is only
// ever changed explicitly.
type Task struct {
	id          string
	title       string
	description string
	owner       string
	dueDate     time.Time // zero = no due date
	createdAt   time.Time
	position    int
	url         string
	image       string
	color       string
	status      string
	done        bool
	activities  map[string]bool
	sharedWith  map[string]struct{}
}

// NewTask creates a task with a fresh UUID, owned by owner.
func NewTask(title, owner string) *Task {
	return &Task{
		id:         uuid.NewString(),
		title:      title,
		owner:      owner,
		createdAt:  time.Now().UTC(),
		color:      "white",
		activities: make(map[string]bool),
		sharedWith: make(map[string]struct{}),
	}
}

// RestoreTask rebuilds a task from storage with its persisted identifier and
// creation date. Remaining fields are applied through the setters.
func RestoreTask(id, title, owner string, createdAt time.Time) *Task {
	t := NewTask(title, owner)
	t.id = id
	t.createdAt = createdAt
	return t
}

func (t *Task) ID() string            { return t.id }
func (t *Task) Title() string         { return t.title }
func (t *Task) Description() string   { return t.description }
func (t *Task) Owner() string         { return t.owner }
func (t *Task) DueDate() time.Time    { return t.dueDate }
func (t *Task) CreatedAt() time.Time  { return t.createdAt }
func (t *Task) Position() int         { return t.position }
func (t *Task) URL() string           { return t.url }
func (t *Task) Image() string         { return t.image }
func (t *Task) Color() string         { return t.color }
func (t *Task) Status() string        { return t.status }
func (t *Task) Done() bool            { return t.done }

func (t *Task) SetTitle(title string)      { t.title = title }
func (t *Task) SetDescription(d string)    { t.description = d }
func (t *Task) SetDueDate(d time.Time)     { t.dueDate = d }
func (t *Task) SetPosition(p int)          { t.position = p }
func (t *Task) SetURL(u string)            { t.url = u }
func (t *Task) SetImage(i string)          { t.image = i }
func (t *Task) SetColor(c string)          { t.color = c }
func (t *Task) SetStatus(s string)         { t.status = s }
func (t *Task) SetDone(done bool)          { t.done = done }

// Same reports whether other is the same logical task (equality by id).
func (t *Task) Same(other *Task) bool {
	return other != nil && t.id == other.id
}

// DueToday reports whether the task's due date falls on the same calendar
// day as now. Tasks without a due date are never due today.
func (t *Task) DueToday(now time.Time) bool {
	if t.dueDate.IsZero() {
		return false
	}
	y1, m1, d1 := t.dueDate.Date()
	y2, m2, d2 := now.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// Activities returns a copy of the activity map (name → completed).
func (t *Task) Activities() map[string]bool {
	out := make(map[string]bool, len(t.activities))
	for name, done := range t.activities {
		out[name] = done
	}
	return out
}

// SetActivities replaces the activity set wholesale and recomputes the done
// flag from the new set.
func (t *Task) SetActivities(activities map[string]bool) {
	t.activities = make(map[string]bool, len(activities))
	for name, done := range activities {
		t.activities[name] = done
	}
	t.recomputeDone()
}

// SetActivityDone marks a single activity complete or incomplete and
// recomputes the done flag. Unknown activity names are ignored.
func (t *Task) SetActivityDone(name string, done bool) {
	if _, ok := t.activities[name]; !ok {
		return
	}
	t.activities[name] = done
	t.recomputeDone()
}

func (t *Task) recomputeDone() {
	if len(t.activities) == 0 {
		return
	}
	for _, done := range t.activities {
		if !done {
			t.done = false
			return
		}
	}
	t.done = true
}

// SharedWith returns the usernames this task is shared with, sorted.
func (t *Task) SharedWith() []string {
	out := make([]string, 0, len(t.sharedWith))
	for username := range t.sharedWith {
		out = append(out, username)
	}
	sort.Strings(out)
	return out
}

// IsSharedWith reports whether the task is visible to username via sharing.
func (t *Task) IsSharedWith(username string) bool {
	_, ok := t.sharedWith[username]
	return ok
}

// AddSharedUser grants username visibility. Adding a user twice is a no-op;
// adding the owner is rejected.
func (t *Task) AddSharedUser(username string) error {
	if username == t.owner {
		return ErrShareWithOwner
	}
	t.sharedWith[username] = struct{}{}
	return nil
}

// RemoveSharedUser revokes username's visibility. Absent usernames are a no-op.
func (t *Task) RemoveSharedUser(username string) {
	delete(t.sharedWith, username)
}

// ClearSharedUsers drops every sharing entry. Used when the owner deletes the
// task everywhere.
func (t *Task) ClearSharedUsers() {
	t.sharedWith = make(map[string]struct{})
}

// TaskSnapshot captures the mutable content fields of a task so a multi-step
// operation can restore them when a later step fails.
type TaskSnapshot struct {
	Title       string
	Description string
	DueDate     time.Time
	URL         string
	Image       string
	Color       string
	Status      string
	Done        bool
	Activities  map[string]bool
}

// Snapshot returns a copy of the task's mutable content.
func (t *Task) Snapshot() TaskSnapshot {
	return TaskSnapshot{
		Title:       t.title,
		Description: t.description,
		DueDate:     t.dueDate,
		URL:         t.url,
		Image:       t.image,
		Color:       t.color,
		Status:      t.status,
		Done:        t.done,
		Activities:  t.Activities(),
	}
}

// RestoreSnapshot puts the task's mutable content back to a prior snapshot.
// Identity, owner, position and sharing are unaffected.
func (t *Task) RestoreSnapshot(s TaskSnapshot) {
	t.title = s.Title
	t.description = s.Description
	t.dueDate = s.DueDate
	t.url = s.URL
	t.image = s.Image
	t.color = s.Color
	t.status = s.Status
	t.SetActivities(s.Activities)
	t.done = s.Done
}

// Clone returns an independent copy of the task carrying the same identity.
// Stores hand out clones so each session mutates its own instance.
func (t *Task) Clone() *Task {
	c := RestoreTask(t.id, t.title, t.owner, t.createdAt)
	c.description = t.description
	c.dueDate = t.dueDate
	c.position = t.position
	c.url = t.url
	c.image = t.image
	c.color = t.color
	c.status = t.status
	c.SetActivities(t.activities)
	c.done = t.done
	for username := range t.sharedWith {
		c.sharedWith[username] = struct{}{}
	}
	return c
}
