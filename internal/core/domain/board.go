package domain

// Board is an ordered container of tasks for one (kind, owner) pair. Task
// order is the display position: 1-based, contiguous, renumbered after every
// removal. A board may contain tasks owned by other users via sharing; the
// board's owner is independent of the owner of each task on it.
type Board struct {
	id    string // assigned by the store on first persist; empty = not yet persisted
	kind  BoardKind
	owner string
	color string
	tasks []*Task
}

// NewBoard creates an unpersisted board for owner.
func NewBoard(kind BoardKind, owner string) *Board {
	return &Board{kind: kind, owner: owner, color: "Default"}
}

// RestoreBoard rebuilds a board from storage with its persisted identifier.
func RestoreBoard(id string, kind BoardKind, owner string) *Board {
	b := NewBoard(kind, owner)
	b.id = id
	return b
}

func (b *Board) ID() string      { return b.id }
func (b *Board) Kind() BoardKind { return b.kind }
func (b *Board) Owner() string   { return b.owner }
func (b *Board) Color() string   { return b.color }

func (b *Board) SetColor(c string) { b.color = c }

// SetID records the identifier assigned by the store on first persist.
func (b *Board) SetID(id string) { b.id = id }

// Persisted reports whether the store has assigned this board an identifier.
func (b *Board) Persisted() bool { return b.id != "" }

func (b *Board) Len() int { return len(b.tasks) }

// Tasks returns a copy of the task sequence in display order.
func (b *Board) Tasks() []*Task {
	out := make([]*Task, len(b.tasks))
	copy(out, b.tasks)
	return out
}

// TaskByTitle returns the first task with the given title.
func (b *Board) TaskByTitle(title string) (*Task, bool) {
	for _, t := range b.tasks {
		if t.Title() == title {
			return t, true
		}
	}
	return nil, false
}

// TaskByID returns the task with the given identity.
func (b *Board) TaskByID(id string) (*Task, bool) {
	for _, t := range b.tasks {
		if t.ID() == id {
			return t, true
		}
	}
	return nil, false
}

// HasTask reports whether a task with the same (title, owner) pair is already
// on the board.
func (b *Board) HasTask(title, owner string) bool {
	for _, t := range b.tasks {
		if t.Title() == title && t.Owner() == owner {
			return true
		}
	}
	return false
}

// AddTask creates a new task owned by owner and appends it. Fails with
// ErrDuplicateTask when a task with the same (title, owner) pair exists.
func (b *Board) AddTask(title, owner string) (*Task, error) {
	if b.HasTask(title, owner) {
		return nil, ErrDuplicateTask
	}
	t := NewTask(title, owner)
	b.tasks = append(b.tasks, t)
	t.SetPosition(len(b.tasks))
	return t, nil
}

// AddExistingTask appends a task that already has an identity, used when
// loading from the store and as the destination half of a move. Fails with
// ErrDuplicateTask when a task with the same id is already on the board.
// Other tasks keep their positions.
func (b *Board) AddExistingTask(t *Task) error {
	if _, ok := b.TaskByID(t.ID()); ok {
		return ErrDuplicateTask
	}
	b.tasks = append(b.tasks, t)
	t.SetPosition(len(b.tasks))
	return nil
}

// RemoveTask removes a task by identity and renumbers the remaining tasks to
// contiguous 1-based positions. Returns false when the task is not on the
// board.
func (b *Board) RemoveTask(t *Task) bool {
	for i, existing := range b.tasks {
		if existing.Same(t) {
			b.tasks = append(b.tasks[:i], b.tasks[i+1:]...)
			b.renumber()
			return true
		}
	}
	return false
}

func (b *Board) renumber() {
	for i, t := range b.tasks {
		t.SetPosition(i + 1)
	}
}
