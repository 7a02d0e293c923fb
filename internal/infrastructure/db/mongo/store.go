package mongo

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/taskdeck/taskdeck/internal/core/domain"
)

const (
	usersCollection  = "users"
	boardsCollection = "boards"
	tasksCollection  = "tasks"
	sharesCollection = "shares"
)

// BoardIDCache caches (kind, owner) → board id lookups. Board ids never
// change once assigned, so cached entries cannot go stale.
type BoardIDCache interface {
	Get(ctx context.Context, kind, owner string) (string, bool)
	Set(ctx context.Context, kind, owner, id string)
}

// Store is the MongoDB-backed persistence collaborator. Sharing uses the
// aggregate-root model: one task document (the owner's) plus one share
// document per recipient.
type Store struct {
	users  *mongo.Collection
	boards *mongo.Collection
	tasks  *mongo.Collection
	shares *mongo.Collection
	cache  BoardIDCache // optional; nil disables caching
	log    zerolog.Logger
}

func NewStore(db *mongo.Database, cache BoardIDCache, log zerolog.Logger) *Store {
	return &Store{
		users:  db.Collection(usersCollection),
		boards: db.Collection(boardsCollection),
		tasks:  db.Collection(tasksCollection),
		shares: db.Collection(sharesCollection),
		cache:  cache,
		log:    log,
	}
}

type userDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Username     string             `bson:"username"`
	PasswordHash string             `bson:"password_hash"`
	CreatedAt    int64              `bson:"created_at"`
}

type boardDoc struct {
	ID    primitive.ObjectID `bson:"_id,omitempty"`
	Kind  string             `bson:"kind"`
	Owner string             `bson:"owner"`
	Color string             `bson:"color"`
}

type taskDoc struct {
	ID          string             `bson:"_id"` // the task UUID
	BoardID     primitive.ObjectID `bson:"board_id"`
	Title       string             `bson:"title"`
	Description string             `bson:"description,omitempty"`
	Owner       string             `bson:"owner"`
	DueDate     int64              `bson:"due_date,omitempty"` // unix seconds, 0 = none
	CreatedAt   int64              `bson:"created_at"`
	Position    int                `bson:"position"`
	URL         string             `bson:"url,omitempty"`
	Image       string             `bson:"image,omitempty"`
	Color       string             `bson:"color"`
	Status      string             `bson:"status,omitempty"`
	Done        bool               `bson:"done"`
	Activities  map[string]bool    `bson:"activities,omitempty"`
}

type shareDoc struct {
	TaskID   string `bson:"task_id"`
	Username string `bson:"username"`
}

// CreateUser inserts the user and assigns its identifier. A duplicate
// username reports false, not an error.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := userDoc{
		Username:     user.Username(),
		PasswordHash: user.PasswordHash(),
		CreatedAt:    time.Now().Unix(),
	}
	res, err := s.users.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("insert user: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		user.SetID(oid.Hex())
	}
	return true, nil
}

func (s *Store) FindUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc userDoc
	if err := s.users.FindOne(ctx, bson.M{"username": username}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return domain.RestoreUser(doc.ID.Hex(), doc.Username, doc.PasswordHash), nil
}

func (s *Store) ListAllUsers(ctx context.Context) ([]*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := s.users.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "username", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	users := make([]*domain.User, 0, len(docs))
	for _, doc := range docs {
		users = append(users, domain.RestoreUser(doc.ID.Hex(), doc.Username, doc.PasswordHash))
	}
	return users, nil
}

// CreateBoard inserts the board and assigns its identifier.
func (s *Store) CreateBoard(ctx context.Context, board *domain.Board) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := boardDoc{
		Kind:  board.Kind().String(),
		Owner: board.Owner(),
		Color: board.Color(),
	}
	res, err := s.boards.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("insert board: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		board.SetID(oid.Hex())
		if s.cache != nil {
			s.cache.Set(ctx, doc.Kind, doc.Owner, board.ID())
		}
	}
	return nil
}

func (s *Store) FindBoardID(ctx context.Context, kind domain.BoardKind, username string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if s.cache != nil {
		if id, ok := s.cache.Get(ctx, kind.String(), username); ok {
			return id, nil
		}
	}

	var doc boardDoc
	err := s.boards.FindOne(ctx, bson.M{"kind": kind.String(), "owner": username}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return "", domain.ErrBoardNotFound
		}
		return "", fmt.Errorf("find board: %w", err)
	}

	id := doc.ID.Hex()
	if s.cache != nil {
		s.cache.Set(ctx, kind.String(), username, id)
	}
	return id, nil
}

func (s *Store) CreateTask(ctx context.Context, task *domain.Task, boardID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc, err := newTaskDoc(task, boardID)
	if err != nil {
		return err
	}
	if _, err := s.tasks.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

func (s *Store) UpdateTask(ctx context.Context, task *domain.Task, boardID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc, err := newTaskDoc(task, boardID)
	if err != nil {
		return err
	}
	res, err := s.tasks.ReplaceOne(ctx, bson.M{"_id": task.ID()}, doc)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (s *Store) UpdateTaskBoardID(ctx context.Context, taskID, newBoardID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(newBoardID)
	if err != nil {
		return domain.ErrBoardNotFound
	}
	res, err := s.tasks.UpdateOne(ctx, bson.M{"_id": taskID}, bson.M{"$set": bson.M{"board_id": oid}})
	if err != nil {
		return fmt.Errorf("update task board: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

// DeleteTask removes the task document. The owner filter ensures only the
// creator's delete reaches the row.
func (s *Store) DeleteTask(ctx context.Context, taskID, username string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := s.tasks.DeleteOne(ctx, bson.M{"_id": taskID, "owner": username})
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

// ShareTask records a sharing entry. Sharing twice with the same user is a
// no-op thanks to the unique index.
func (s *Store) ShareTask(ctx context.Context, taskID, username string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := s.shares.InsertOne(ctx, shareDoc{TaskID: taskID, Username: username})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return fmt.Errorf("insert share: %w", err)
	}
	return nil
}

func (s *Store) UnshareTask(ctx context.Context, taskID, username string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := s.shares.DeleteOne(ctx, bson.M{"task_id": taskID, "username": username}); err != nil {
		return fmt.Errorf("delete share: %w", err)
	}
	return nil
}

func (s *Store) UnshareAll(ctx context.Context, taskID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := s.shares.DeleteMany(ctx, bson.M{"task_id": taskID}); err != nil {
		return fmt.Errorf("delete shares: %w", err)
	}
	return nil
}

func (s *Store) ListSharedUsernames(ctx context.Context, taskID string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := s.shares.Find(ctx, bson.M{"task_id": taskID})
	if err != nil {
		return nil, fmt.Errorf("list shares: %w", err)
	}
	var docs []shareDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list shares: %w", err)
	}
	usernames := make([]string, 0, len(docs))
	for _, doc := range docs {
		usernames = append(usernames, doc.Username)
	}
	sort.Strings(usernames)
	return usernames, nil
}

// LoadBoardsAndTasks populates the user's boards with owned tasks (in display
// order) and shared-in tasks placed on the board matching the owner's board
// kind. Documents with unknown board kinds are skipped with a warning.
func (s *Store) LoadBoardsAndTasks(ctx context.Context, user *domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	username := user.Username()

	boardsByOID, err := s.loadOwnBoards(ctx, user)
	if err != nil {
		return err
	}

	taskByID, err := s.loadOwnedTasks(ctx, username, boardsByOID)
	if err != nil {
		return err
	}
	if err := s.attachShareSets(ctx, taskByID); err != nil {
		return err
	}

	return s.loadSharedInTasks(ctx, user)
}

func (s *Store) loadOwnBoards(ctx context.Context, user *domain.User) (map[primitive.ObjectID]*domain.Board, error) {
	cur, err := s.boards.Find(ctx, bson.M{"owner": user.Username()})
	if err != nil {
		return nil, fmt.Errorf("load boards: %w", err)
	}
	var docs []boardDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("load boards: %w", err)
	}

	byOID := make(map[primitive.ObjectID]*domain.Board, len(docs))
	for _, doc := range docs {
		kind, err := domain.ParseBoardKind(doc.Kind)
		if err != nil {
			s.log.Warn().Str("kind", doc.Kind).Str("owner", doc.Owner).Msg("skipping board with unknown kind")
			continue
		}
		board := domain.RestoreBoard(doc.ID.Hex(), kind, doc.Owner)
		if doc.Color != "" {
			board.SetColor(doc.Color)
		}
		if !user.AddBoard(board) {
			s.log.Warn().Str("kind", doc.Kind).Str("owner", doc.Owner).Msg("skipping duplicate board kind")
			continue
		}
		byOID[doc.ID] = board
	}
	return byOID, nil
}

func (s *Store) loadOwnedTasks(ctx context.Context, username string, boards map[primitive.ObjectID]*domain.Board) (map[string]*domain.Task, error) {
	cur, err := s.tasks.Find(ctx, bson.M{"owner": username},
		options.Find().SetSort(bson.D{{Key: "position", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	var docs []taskDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}

	byID := make(map[string]*domain.Task, len(docs))
	for _, doc := range docs {
		board, ok := boards[doc.BoardID]
		if !ok {
			s.log.Warn().Str("task_id", doc.ID).Msg("skipping task with unknown board")
			continue
		}
		task := restoreTask(doc)
		if err := board.AddExistingTask(task); err != nil {
			s.log.Warn().Str("task_id", doc.ID).Msg("skipping duplicate task")
			continue
		}
		byID[doc.ID] = task
	}
	return byID, nil
}

func (s *Store) attachShareSets(ctx context.Context, tasks map[string]*domain.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	ids := make([]string, 0, len(tasks))
	for id := range tasks {
		ids = append(ids, id)
	}

	cur, err := s.shares.Find(ctx, bson.M{"task_id": bson.M{"$in": ids}})
	if err != nil {
		return fmt.Errorf("load shares: %w", err)
	}
	var docs []shareDoc
	if err := cur.All(ctx, &docs); err != nil {
		return fmt.Errorf("load shares: %w", err)
	}
	for _, doc := range docs {
		if task, ok := tasks[doc.TaskID]; ok {
			_ = task.AddSharedUser(doc.Username)
		}
	}
	return nil
}

func (s *Store) loadSharedInTasks(ctx context.Context, user *domain.User) error {
	cur, err := s.shares.Find(ctx, bson.M{"username": user.Username()})
	if err != nil {
		return fmt.Errorf("load shared-in: %w", err)
	}
	var shares []shareDoc
	if err := cur.All(ctx, &shares); err != nil {
		return fmt.Errorf("load shared-in: %w", err)
	}
	if len(shares) == 0 {
		return nil
	}

	ids := make([]string, 0, len(shares))
	for _, doc := range shares {
		ids = append(ids, doc.TaskID)
	}
	taskCur, err := s.tasks.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return fmt.Errorf("load shared-in: %w", err)
	}
	var taskDocs []taskDoc
	if err := taskCur.All(ctx, &taskDocs); err != nil {
		return fmt.Errorf("load shared-in: %w", err)
	}

	kinds, err := s.boardKindsByOID(ctx, taskDocs)
	if err != nil {
		return err
	}

	for _, doc := range taskDocs {
		kindText, ok := kinds[doc.BoardID]
		if !ok {
			s.log.Warn().Str("task_id", doc.ID).Msg("skipping shared task with unknown board")
			continue
		}
		kind, err := domain.ParseBoardKind(kindText)
		if err != nil {
			s.log.Warn().Str("task_id", doc.ID).Str("kind", kindText).Msg("skipping shared task with unknown board kind")
			continue
		}
		board, ok := user.BoardFor(kind)
		if !ok {
			s.log.Warn().Str("task_id", doc.ID).Str("kind", kindText).Msg("recipient has no board of this kind")
			continue
		}
		task := restoreTask(doc)
		_ = task.AddSharedUser(user.Username())
		if err := board.AddExistingTask(task); err != nil {
			s.log.Warn().Str("task_id", doc.ID).Msg("skipping duplicate shared task")
		}
	}
	return nil
}

// boardKindsByOID resolves the board kind of each task's owning board, needed
// to place shared-in tasks on the recipient's board of the same kind.
func (s *Store) boardKindsByOID(ctx context.Context, docs []taskDoc) (map[primitive.ObjectID]string, error) {
	oids := make([]primitive.ObjectID, 0, len(docs))
	for _, doc := range docs {
		oids = append(oids, doc.BoardID)
	}
	cur, err := s.boards.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, fmt.Errorf("load share boards: %w", err)
	}
	var boardDocs []boardDoc
	if err := cur.All(ctx, &boardDocs); err != nil {
		return nil, fmt.Errorf("load share boards: %w", err)
	}
	kinds := make(map[primitive.ObjectID]string, len(boardDocs))
	for _, doc := range boardDocs {
		kinds[doc.ID] = doc.Kind
	}
	return kinds, nil
}

// EnsureIndexes creates the unique and lookup indexes the store relies on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	unique := options.Index().SetUnique(true)

	if _, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "username", Value: 1}}, Options: unique,
	}); err != nil {
		return err
	}
	if _, err := s.boards.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "kind", Value: 1}, {Key: "owner", Value: 1}}, Options: unique,
	}); err != nil {
		return err
	}
	if _, err := s.tasks.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "board_id", Value: 1}}},
		{Keys: bson.D{{Key: "owner", Value: 1}}},
	}); err != nil {
		return err
	}
	_, err := s.shares.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "task_id", Value: 1}, {Key: "username", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "username", Value: 1}}},
	})
	return err
}

func newTaskDoc(task *domain.Task, boardID string) (*taskDoc, error) {
	oid, err := primitive.ObjectIDFromHex(boardID)
	if err != nil {
		return nil, domain.ErrBoardNotFound
	}
	doc := &taskDoc{
		ID:          task.ID(),
		BoardID:     oid,
		Title:       task.Title(),
		Description: task.Description(),
		Owner:       task.Owner(),
		CreatedAt:   task.CreatedAt().Unix(),
		Position:    task.Position(),
		URL:         task.URL(),
		Image:       task.Image(),
		Color:       task.Color(),
		Status:      task.Status(),
		Done:        task.Done(),
		Activities:  task.Activities(),
	}
	if due := task.DueDate(); !due.IsZero() {
		doc.DueDate = due.Unix()
	}
	return doc, nil
}

func restoreTask(doc taskDoc) *domain.Task {
	task := domain.RestoreTask(doc.ID, doc.Title, doc.Owner, time.Unix(doc.CreatedAt, 0).UTC())
	task.SetDescription(doc.Description)
	task.SetPosition(doc.Position)
	task.SetURL(doc.URL)
	task.SetImage(doc.Image)
	if doc.Color != "" {
		task.SetColor(doc.Color)
	}
	task.SetStatus(doc.Status)
	task.SetActivities(doc.Activities)
	// The stored flag is authoritative, so it is applied after the
	// activity-driven recompute.
	task.SetDone(doc.Done)
	if doc.DueDate != 0 {
		task.SetDueDate(time.Unix(doc.DueDate, 0).UTC())
	}
	return task
}
