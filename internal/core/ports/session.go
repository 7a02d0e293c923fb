package ports

import (
	"context"

	"github.com/taskdeck/taskdeck/internal/core/domain"
)

// AddTaskInput carries all data needed to create a task on a board. DueDate
// uses the dd/mm/yyyy boundary format; empty means no due date.
type AddTaskInput struct {
	BoardKind   string `validate:"required"`
	Title       string `validate:"required"`
	Description string
	DueDate     string
	URL         string
	Color       string
	Image       string
	Status      string
	Activities  map[string]bool
	Owner       string `validate:"required"`
}

// UpdateTaskInput carries a full replacement of a task's content. Title
// locates the task on the board; NewTitle renames it when non-empty.
type UpdateTaskInput struct {
	BoardKind   string `validate:"required"`
	Title       string `validate:"required"`
	NewTitle    string
	Description string
	DueDate     string
	URL         string
	Color       string
	Image       string
	Status      string
	Activities  map[string]bool
	Owner       string `validate:"required"`
}

// ShareResult reports the outcome of a best-effort sharing batch. One
// username's failure does not block the rest.
type ShareResult struct {
	AllSuccess bool
	// Failures maps each failed username to the reason.
	Failures map[string]error
}

// Fail records a per-username failure and clears AllSuccess.
func (r *ShareResult) Fail(username string, err error) {
	r.AllSuccess = false
	r.Failures[username] = err
}

// Session is the per-login domain service: authentication plus every
// multi-step task use case, coordinating in-memory state with the Store.
type Session interface {
	Register(ctx context.Context, username, password string) (string, error)
	Login(ctx context.Context, username, password string) (string, error)
	Resume(ctx context.Context, token string) error
	LoggedInUsername() string

	Boards() []*domain.Board
	ListUsers(ctx context.Context) ([]string, error)

	AddTask(ctx context.Context, in AddTaskInput) (string, error)
	UpdateTask(ctx context.Context, in UpdateTaskInput) error
	DeleteTask(ctx context.Context, boardKind, title string) error
	MoveTask(ctx context.Context, title, sourceKind, destKind string) error

	ShareTask(ctx context.Context, task *domain.Task, usernames []string) (*ShareResult, error)
	UnshareTask(ctx context.Context, task *domain.Task, usernames []string) (*ShareResult, error)
	ListSharedUsers(ctx context.Context, boardKind, title string) ([]string, error)
	IsOwner(task *domain.Task) bool
}
