package ports

import (
	"context"

	"github.com/taskdeck/taskdeck/internal/core/domain"
)

// Store is the persistence collaborator providing durable CRUD for users,
// boards, tasks and sharing records. Implementations report not-found
// conditions with the matching domain sentinel errors.
//
// Sharing follows the aggregate-root model: one task row (the owner's) plus
// one sharing record per recipient granting visibility.
type Store interface {
	// CreateUser persists a new user and assigns its identifier. Returns
	// false when the username is already taken (not an error).
	CreateUser(ctx context.Context, user *domain.User) (bool, error)
	FindUserByUsername(ctx context.Context, username string) (*domain.User, error)
	ListAllUsers(ctx context.Context) ([]*domain.User, error)

	// LoadBoardsAndTasks populates the user's boards with owned tasks and
	// shared-in tasks, placing each shared-in task on the recipient's board
	// of the same kind. Unknown board kinds found in storage are skipped
	// with a warning, not fatal.
	LoadBoardsAndTasks(ctx context.Context, user *domain.User) error

	// CreateBoard persists a board and assigns its identifier.
	CreateBoard(ctx context.Context, board *domain.Board) error
	FindBoardID(ctx context.Context, kind domain.BoardKind, username string) (string, error)

	CreateTask(ctx context.Context, task *domain.Task, boardID string) error
	UpdateTask(ctx context.Context, task *domain.Task, boardID string) error
	UpdateTaskBoardID(ctx context.Context, taskID, newBoardID string) error
	// DeleteTask removes the task row. The username must be the task's
	// owner; the row is left untouched otherwise.
	DeleteTask(ctx context.Context, taskID, username string) error

	ShareTask(ctx context.Context, taskID, username string) error
	UnshareTask(ctx context.Context, taskID, username string) error
	UnshareAll(ctx context.Context, taskID string) error
	ListSharedUsernames(ctx context.Context, taskID string) ([]string, error)
}
