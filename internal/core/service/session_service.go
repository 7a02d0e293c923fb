package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/taskdeck/taskdeck/internal/core/domain"
	"github.com/taskdeck/taskdeck/internal/core/ports"
)

// SessionService is the domain service for one logged-in session. It owns the
// authenticated user's in-memory board graph and coordinates every multi-step
// use case with the Store, reverting in-memory changes when persistence
// fails so memory and store never diverge.
//
// One instance serves one session; it is not safe for concurrent use without
// external serialization.
type SessionService struct {
	store    ports.Store
	hasher   ports.PasswordHasher
	tokens   *TokenSigner
	validate *validator.Validate
	log      zerolog.Logger

	user *domain.User // nil until a successful Register, Login or Resume
}

func NewSessionService(store ports.Store, hasher ports.PasswordHasher, tokens *TokenSigner, log zerolog.Logger) *SessionService {
	return &SessionService{
		store:    store,
		hasher:   hasher,
		tokens:   tokens,
		validate: validator.New(),
		log:      log,
	}
}

// LoggedInUsername returns the authenticated username, or "" when none.
func (s *SessionService) LoggedInUsername() string {
	if s.user == nil {
		return ""
	}
	return s.user.Username()
}

// Boards returns the authenticated user's boards. Empty when not logged in.
func (s *SessionService) Boards() []*domain.Board {
	if s.user == nil {
		return nil
	}
	return s.user.Boards()
}

// IsOwner reports whether the authenticated user created the task.
func (s *SessionService) IsOwner(task *domain.Task) bool {
	return s.user != nil && task != nil && task.Owner() == s.user.Username()
}

// Register creates a user, persists it, and provisions the default boards.
// On success the session is authenticated and a session token is returned.
// On any persistence failure the session stays unauthenticated; rows already
// written are not retried or removed.
func (s *SessionService) Register(ctx context.Context, username, password string) (string, error) {
	if username == "" || password == "" {
		return "", domain.ErrInvalidCredentials
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	user := domain.NewUser(username, hash)
	created, err := s.store.CreateUser(ctx, user)
	if err != nil {
		s.user = nil
		return "", domain.NewStorageError("create user", err)
	}
	if !created {
		s.user = nil
		return "", domain.ErrUserExists
	}

	for _, board := range user.ProvisionDefaultBoards() {
		if err := s.store.CreateBoard(ctx, board); err != nil {
			s.user = nil
			return "", domain.NewStorageError("create board", err)
		}
	}

	s.user = user
	s.log.Info().Str("username", username).Msg("user registered")
	return s.tokens.Issue(username)
}

// Login authenticates against the stored credentials and loads the user's
// boards and tasks (owned and shared-in) into memory. A failed login clears
// any previously authenticated user.
func (s *SessionService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.lookupUser(ctx, username)
	if err != nil {
		return "", err
	}

	if !user.VerifyCredentials(s.hasher, password) {
		s.user = nil
		return "", domain.ErrInvalidCredentials
	}

	if err := s.attach(ctx, user); err != nil {
		return "", err
	}
	s.log.Info().Str("username", username).Msg("user logged in")
	return s.tokens.Issue(username)
}

// Resume reattaches a session from a token issued by Register or Login.
func (s *SessionService) Resume(ctx context.Context, token string) error {
	username, err := s.tokens.Verify(token)
	if err != nil {
		s.user = nil
		return err
	}
	user, err := s.lookupUser(ctx, username)
	if err != nil {
		return err
	}
	if err := s.attach(ctx, user); err != nil {
		return err
	}
	s.log.Info().Str("username", username).Msg("session resumed")
	return nil
}

func (s *SessionService) lookupUser(ctx context.Context, username string) (*domain.User, error) {
	user, err := s.store.FindUserByUsername(ctx, username)
	if err != nil {
		s.user = nil
		if err == domain.ErrUserNotFound {
			return nil, err
		}
		return nil, domain.NewStorageError("find user", err)
	}
	return user, nil
}

func (s *SessionService) attach(ctx context.Context, user *domain.User) error {
	if err := s.store.LoadBoardsAndTasks(ctx, user); err != nil {
		s.user = nil
		return domain.NewStorageError("load boards", err)
	}
	s.user = user
	return nil
}

// ListUsers returns every registered username except the authenticated one,
// for picking sharing recipients.
func (s *SessionService) ListUsers(ctx context.Context) ([]string, error) {
	if s.user == nil {
		return nil, domain.ErrNotAuthenticated
	}
	users, err := s.store.ListAllUsers(ctx)
	if err != nil {
		return nil, domain.NewStorageError("list users", err)
	}
	names := make([]string, 0, len(users))
	for _, u := range users {
		if u.Username() == s.user.Username() {
			continue
		}
		names = append(names, u.Username())
	}
	return names, nil
}

// AddTask creates a task on the authenticated user's board of the given kind
// and persists it. When persistence fails the in-memory addition is reverted.
// Returns the new task's id.
func (s *SessionService) AddTask(ctx context.Context, in ports.AddTaskInput) (string, error) {
	if s.user == nil {
		return "", domain.ErrNotAuthenticated
	}
	if err := s.validate.Struct(in); err != nil {
		return "", fmt.Errorf("add task: %w", err)
	}
	if in.Owner != s.user.Username() {
		return "", domain.ErrOwnershipMismatch
	}

	board, err := s.boardFor(in.BoardKind)
	if err != nil {
		return "", err
	}

	// Validate the due date before touching the board so a parse failure
	// leaves no partial addition behind.
	dueDate, err := parseOptionalDueDate(in.DueDate)
	if err != nil {
		return "", err
	}

	if err := s.ensureBoardID(ctx, board); err != nil {
		return "", err
	}

	task, err := board.AddTask(in.Title, in.Owner)
	if err != nil {
		return "", err
	}
	task.SetDescription(in.Description)
	task.SetDueDate(dueDate)
	task.SetURL(in.URL)
	task.SetImage(in.Image)
	if in.Color != "" {
		task.SetColor(in.Color)
	}
	task.SetStatus(in.Status)
	task.SetActivities(in.Activities)

	if err := s.store.CreateTask(ctx, task, board.ID()); err != nil {
		board.RemoveTask(task)
		s.log.Error().Err(err).Str("title", in.Title).Msg("task creation rolled back")
		return "", domain.NewStorageError("create task", err)
	}

	s.log.Info().Str("task_id", task.ID()).Str("board", in.BoardKind).Msg("task added")
	return task.ID(), nil
}

// UpdateTask replaces a task's content. Only the task's owner may update.
// All validation happens before any mutation; when the store update fails the
// pre-call content is restored from a snapshot.
func (s *SessionService) UpdateTask(ctx context.Context, in ports.UpdateTaskInput) error {
	if s.user == nil {
		return domain.ErrNotAuthenticated
	}
	if err := s.validate.Struct(in); err != nil {
		return fmt.Errorf("update task: %w", err)
	}

	board, err := s.boardFor(in.BoardKind)
	if err != nil {
		return err
	}
	task, ok := board.TaskByTitle(in.Title)
	if !ok {
		return domain.ErrTaskNotFound
	}
	if task.Owner() != s.user.Username() {
		return domain.ErrPermissionDenied
	}

	newTitle := in.NewTitle
	if newTitle == "" {
		newTitle = in.Title
	}
	if newTitle != in.Title && board.HasTask(newTitle, task.Owner()) {
		return domain.ErrDuplicateTask
	}

	dueDate, err := parseOptionalDueDate(in.DueDate)
	if err != nil {
		return err
	}
	if err := s.ensureBoardID(ctx, board); err != nil {
		return err
	}

	snapshot := task.Snapshot()
	task.SetTitle(newTitle)
	task.SetDescription(in.Description)
	task.SetDueDate(dueDate)
	task.SetURL(in.URL)
	task.SetImage(in.Image)
	if in.Color != "" {
		task.SetColor(in.Color)
	}
	task.SetStatus(in.Status)
	task.SetActivities(in.Activities)

	if err := s.store.UpdateTask(ctx, task, board.ID()); err != nil {
		task.RestoreSnapshot(snapshot)
		s.log.Error().Err(err).Str("task_id", task.ID()).Msg("task update rolled back")
		return domain.NewStorageError("update task", err)
	}

	s.log.Info().Str("task_id", task.ID()).Msg("task updated")
	return nil
}

// DeleteTask removes a task from the authenticated user's board. The owner
// deletes it everywhere (sharing records removed first, then the task row);
// a recipient only revokes their own visibility, leaving the owner's copy and
// other recipients' copies intact.
func (s *SessionService) DeleteTask(ctx context.Context, boardKind, title string) error {
	if s.user == nil {
		return domain.ErrNotAuthenticated
	}
	board, err := s.boardFor(boardKind)
	if err != nil {
		return err
	}
	task, ok := board.TaskByTitle(title)
	if !ok {
		return domain.ErrTaskNotFound
	}

	username := s.user.Username()
	if task.Owner() == username {
		if err := s.store.UnshareAll(ctx, task.ID()); err != nil {
			return domain.NewStorageError("unshare all", err)
		}
		if err := s.store.DeleteTask(ctx, task.ID(), username); err != nil {
			return domain.NewStorageError("delete task", err)
		}
		board.RemoveTask(task)
		task.ClearSharedUsers()
		s.log.Info().Str("task_id", task.ID()).Msg("task deleted everywhere")
		return nil
	}

	// Recipient path: the task is on this board because it was shared in.
	if err := s.store.UnshareTask(ctx, task.ID(), username); err != nil {
		return domain.NewStorageError("unshare task", err)
	}
	board.RemoveTask(task)
	s.log.Info().Str("task_id", task.ID()).Str("username", username).Msg("shared task removed from recipient board")
	return nil
}

// MoveTask moves a task between two of the authenticated user's boards. Only
// the task's owner may move it. The store's board association is updated
// first; memory is only touched after the store succeeds.
func (s *SessionService) MoveTask(ctx context.Context, title, sourceKind, destKind string) error {
	if s.user == nil {
		return domain.ErrNotAuthenticated
	}
	source, err := s.boardFor(sourceKind)
	if err != nil {
		return err
	}
	dest, err := s.boardFor(destKind)
	if err != nil {
		return err
	}

	task, ok := source.TaskByTitle(title)
	if !ok {
		return domain.ErrTaskNotFound
	}
	if task.Owner() != s.user.Username() {
		return domain.ErrPermissionDenied
	}
	if dest.HasTask(task.Title(), task.Owner()) {
		return domain.ErrDuplicateTask
	}
	if err := s.ensureBoardID(ctx, source); err != nil {
		return err
	}
	if err := s.ensureBoardID(ctx, dest); err != nil {
		return err
	}

	if err := s.store.UpdateTaskBoardID(ctx, task.ID(), dest.ID()); err != nil {
		return domain.NewStorageError("move task", err)
	}

	source.RemoveTask(task)
	if err := dest.AddExistingTask(task); err != nil {
		// Same id on the destination was ruled out above.
		return err
	}
	s.log.Info().Str("task_id", task.ID()).Str("from", sourceKind).Str("to", destKind).Msg("task moved")
	return nil
}

// ShareTask grants each username visibility of the task, best effort: one
// username's failure is recorded and the rest are still processed. Only the
// owner may share.
func (s *SessionService) ShareTask(ctx context.Context, task *domain.Task, usernames []string) (*ports.ShareResult, error) {
	if s.user == nil {
		return nil, domain.ErrNotAuthenticated
	}
	if task == nil || task.Owner() != s.user.Username() {
		return nil, domain.ErrPermissionDenied
	}

	result := &ports.ShareResult{AllSuccess: true, Failures: make(map[string]error)}
	for _, username := range usernames {
		if username == task.Owner() {
			result.Fail(username, domain.ErrShareWithOwner)
			continue
		}
		if _, err := s.store.FindUserByUsername(ctx, username); err != nil {
			if err == domain.ErrUserNotFound {
				result.Fail(username, err)
			} else {
				result.Fail(username, domain.NewStorageError("find user", err))
			}
			continue
		}
		if err := s.store.ShareTask(ctx, task.ID(), username); err != nil {
			result.Fail(username, domain.NewStorageError("share task", err))
			continue
		}
		if err := task.AddSharedUser(username); err != nil {
			result.Fail(username, err)
		}
	}
	s.logShareResult("share", task, result)
	return result, nil
}

// UnshareTask revokes each username's visibility, best effort. Only the owner
// may unshare.
func (s *SessionService) UnshareTask(ctx context.Context, task *domain.Task, usernames []string) (*ports.ShareResult, error) {
	if s.user == nil {
		return nil, domain.ErrNotAuthenticated
	}
	if task == nil || task.Owner() != s.user.Username() {
		return nil, domain.ErrPermissionDenied
	}

	result := &ports.ShareResult{AllSuccess: true, Failures: make(map[string]error)}
	for _, username := range usernames {
		if err := s.store.UnshareTask(ctx, task.ID(), username); err != nil {
			result.Fail(username, domain.NewStorageError("unshare task", err))
			continue
		}
		task.RemoveSharedUser(username)
	}
	s.logShareResult("unshare", task, result)
	return result, nil
}

// ListSharedUsers returns the usernames a task is shared with. Visible to the
// task's owner only.
func (s *SessionService) ListSharedUsers(ctx context.Context, boardKind, title string) ([]string, error) {
	if s.user == nil {
		return nil, domain.ErrNotAuthenticated
	}
	board, err := s.boardFor(boardKind)
	if err != nil {
		return nil, err
	}
	task, ok := board.TaskByTitle(title)
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	if task.Owner() != s.user.Username() {
		return nil, domain.ErrPermissionDenied
	}

	usernames, err := s.store.ListSharedUsernames(ctx, task.ID())
	if err != nil {
		return nil, domain.NewStorageError("list shared usernames", err)
	}
	return usernames, nil
}

// ensureBoardID makes sure the board carries its store-assigned identifier,
// recovering it from the store when the in-memory board predates its first
// persist.
func (s *SessionService) ensureBoardID(ctx context.Context, board *domain.Board) error {
	if board.Persisted() {
		return nil
	}
	id, err := s.store.FindBoardID(ctx, board.Kind(), board.Owner())
	if err != nil {
		if err == domain.ErrBoardNotFound {
			return err
		}
		return domain.NewStorageError("find board", err)
	}
	board.SetID(id)
	return nil
}

// boardFor resolves a board kind display string to the authenticated user's
// board of that kind.
func (s *SessionService) boardFor(kindText string) (*domain.Board, error) {
	kind, err := domain.ParseBoardKind(kindText)
	if err != nil {
		return nil, err
	}
	board, ok := s.user.BoardFor(kind)
	if !ok {
		return nil, domain.ErrBoardNotFound
	}
	return board, nil
}

func (s *SessionService) logShareResult(op string, task *domain.Task, result *ports.ShareResult) {
	if result.AllSuccess {
		s.log.Info().Str("task_id", task.ID()).Msgf("%s completed", op)
		return
	}
	for username, err := range result.Failures {
		s.log.Warn().Err(err).Str("task_id", task.ID()).Str("username", username).Msgf("%s failed for user", op)
	}
}

func parseOptionalDueDate(text string) (time.Time, error) {
	if text == "" {
		return time.Time{}, nil
	}
	return domain.ParseDueDate(text)
}
