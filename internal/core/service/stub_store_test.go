package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/taskdeck/taskdeck/internal/core/domain"
)

// ---------------------------------------------------------------------------
// In-memory stub store
// ---------------------------------------------------------------------------

type stubUser struct {
	id   string
	hash string
}

type stubBoard struct {
	kind  domain.BoardKind
	owner string
}

type stubTask struct {
	task    *domain.Task // clone held by the store
	boardID string
}

// stubStore is an in-memory Store. It hands out clones so each session gets
// its own instances, mirroring the real store. Error fields inject failures
// per operation.
type stubStore struct {
	users  map[string]*stubUser
	boards map[string]*stubBoard
	tasks  map[string]*stubTask
	shares map[string]map[string]bool
	nextID int

	createUserErr  error
	createBoardErr error
	findBoardErr   error
	createTaskErr  error
	updateTaskErr  error
	moveTaskErr    error
	deleteTaskErr  error
	unshareAllErr  error
	shareErrFor    map[string]error // per-username ShareTask failures
	unshareErrFor  map[string]error // per-username UnshareTask failures
}

func newStubStore() *stubStore {
	return &stubStore{
		users:  make(map[string]*stubUser),
		boards: make(map[string]*stubBoard),
		tasks:  make(map[string]*stubTask),
		shares: make(map[string]map[string]bool),
	}
}

func (s *stubStore) CreateUser(_ context.Context, user *domain.User) (bool, error) {
	if s.createUserErr != nil {
		return false, s.createUserErr
	}
	if _, ok := s.users[user.Username()]; ok {
		return false, nil
	}
	s.nextID++
	id := fmt.Sprintf("u%d", s.nextID)
	s.users[user.Username()] = &stubUser{id: id, hash: user.PasswordHash()}
	user.SetID(id)
	return true, nil
}

func (s *stubStore) FindUserByUsername(_ context.Context, username string) (*domain.User, error) {
	record, ok := s.users[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return domain.RestoreUser(record.id, username, record.hash), nil
}

func (s *stubStore) ListAllUsers(_ context.Context) ([]*domain.User, error) {
	usernames := make([]string, 0, len(s.users))
	for username := range s.users {
		usernames = append(usernames, username)
	}
	sort.Strings(usernames)
	users := make([]*domain.User, 0, len(usernames))
	for _, username := range usernames {
		record := s.users[username]
		users = append(users, domain.RestoreUser(record.id, username, record.hash))
	}
	return users, nil
}

func (s *stubStore) CreateBoard(_ context.Context, board *domain.Board) error {
	if s.createBoardErr != nil {
		return s.createBoardErr
	}
	s.nextID++
	id := fmt.Sprintf("b%d", s.nextID)
	s.boards[id] = &stubBoard{kind: board.Kind(), owner: board.Owner()}
	board.SetID(id)
	return nil
}

func (s *stubStore) FindBoardID(_ context.Context, kind domain.BoardKind, username string) (string, error) {
	if s.findBoardErr != nil {
		return "", s.findBoardErr
	}
	for id, board := range s.boards {
		if board.kind == kind && board.owner == username {
			return id, nil
		}
	}
	return "", domain.ErrBoardNotFound
}

func (s *stubStore) CreateTask(_ context.Context, task *domain.Task, boardID string) error {
	if s.createTaskErr != nil {
		return s.createTaskErr
	}
	if _, ok := s.boards[boardID]; !ok {
		return domain.ErrBoardNotFound
	}
	s.tasks[task.ID()] = &stubTask{task: task.Clone(), boardID: boardID}
	return nil
}

func (s *stubStore) UpdateTask(_ context.Context, task *domain.Task, boardID string) error {
	if s.updateTaskErr != nil {
		return s.updateTaskErr
	}
	if _, ok := s.tasks[task.ID()]; !ok {
		return domain.ErrTaskNotFound
	}
	s.tasks[task.ID()] = &stubTask{task: task.Clone(), boardID: boardID}
	return nil
}

func (s *stubStore) UpdateTaskBoardID(_ context.Context, taskID, newBoardID string) error {
	if s.moveTaskErr != nil {
		return s.moveTaskErr
	}
	record, ok := s.tasks[taskID]
	if !ok {
		return domain.ErrTaskNotFound
	}
	record.boardID = newBoardID
	return nil
}

func (s *stubStore) DeleteTask(_ context.Context, taskID, username string) error {
	if s.deleteTaskErr != nil {
		return s.deleteTaskErr
	}
	record, ok := s.tasks[taskID]
	if !ok || record.task.Owner() != username {
		return domain.ErrTaskNotFound
	}
	delete(s.tasks, taskID)
	return nil
}

func (s *stubStore) ShareTask(_ context.Context, taskID, username string) error {
	if err := s.shareErrFor[username]; err != nil {
		return err
	}
	if s.shares[taskID] == nil {
		s.shares[taskID] = make(map[string]bool)
	}
	s.shares[taskID][username] = true
	return nil
}

func (s *stubStore) UnshareTask(_ context.Context, taskID, username string) error {
	if err := s.unshareErrFor[username]; err != nil {
		return err
	}
	delete(s.shares[taskID], username)
	return nil
}

func (s *stubStore) UnshareAll(_ context.Context, taskID string) error {
	if s.unshareAllErr != nil {
		return s.unshareAllErr
	}
	delete(s.shares, taskID)
	return nil
}

func (s *stubStore) ListSharedUsernames(_ context.Context, taskID string) ([]string, error) {
	usernames := make([]string, 0, len(s.shares[taskID]))
	for username := range s.shares[taskID] {
		usernames = append(usernames, username)
	}
	sort.Strings(usernames)
	return usernames, nil
}

// LoadBoardsAndTasks replays the persisted graph into the user, the same way
// the real store does: owned boards, owned tasks in position order with their
// share sets, then shared-in tasks on the board of the matching kind.
func (s *stubStore) LoadBoardsAndTasks(_ context.Context, user *domain.User) error {
	username := user.Username()

	byID := make(map[string]*domain.Board)
	for _, id := range s.sortedBoardIDs() {
		board := s.boards[id]
		if board.owner != username {
			continue
		}
		restored := domain.RestoreBoard(id, board.kind, board.owner)
		user.AddBoard(restored)
		byID[id] = restored
	}

	for _, taskID := range s.tasksOwnedBy(username) {
		record := s.tasks[taskID]
		board, ok := byID[record.boardID]
		if !ok {
			continue
		}
		clone := record.task.Clone()
		clone.ClearSharedUsers()
		for recipient := range s.shares[taskID] {
			_ = clone.AddSharedUser(recipient)
		}
		_ = board.AddExistingTask(clone)
	}

	for _, taskID := range s.sortedTaskIDs() {
		if !s.shares[taskID][username] {
			continue
		}
		record := s.tasks[taskID]
		ownerBoard, ok := s.boards[record.boardID]
		if !ok {
			continue
		}
		board, ok := user.BoardFor(ownerBoard.kind)
		if !ok {
			continue
		}
		_ = board.AddExistingTask(record.task.Clone())
	}
	return nil
}

func (s *stubStore) sortedBoardIDs() []string {
	ids := make([]string, 0, len(s.boards))
	for id := range s.boards {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *stubStore) sortedTaskIDs() []string {
	ids := make([]string, 0, len(s.tasks))
	for id := range s.tasks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// tasksOwnedBy returns the owner's task ids in display-position order.
func (s *stubStore) tasksOwnedBy(username string) []string {
	ids := s.sortedTaskIDs()
	owned := make([]string, 0, len(ids))
	for _, id := range ids {
		if s.tasks[id].task.Owner() == username {
			owned = append(owned, id)
		}
	}
	sort.SliceStable(owned, func(i, j int) bool {
		return s.tasks[owned[i]].task.Position() < s.tasks[owned[j]].task.Position()
	})
	return owned
}
