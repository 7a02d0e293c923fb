package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/taskdeck/taskdeck/internal/core/domain"
	"github.com/taskdeck/taskdeck/internal/core/ports"
	"github.com/taskdeck/taskdeck/internal/core/service"
	"github.com/taskdeck/taskdeck/internal/infrastructure/config"
	"github.com/taskdeck/taskdeck/internal/infrastructure/crypto"
	mongodb "github.com/taskdeck/taskdeck/internal/infrastructure/db/mongo"
	redisdb "github.com/taskdeck/taskdeck/internal/infrastructure/db/redis"
	"github.com/taskdeck/taskdeck/pkg/logger"
)

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.Env == "development"})

	ctx := context.Background()

	client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to mongodb")
	}
	defer func() {
		if err := client.Disconnect(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to disconnect mongodb")
		}
	}()

	var cache mongodb.BoardIDCache
	if cfg.Redis.Addr != "" {
		redisClient, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, board cache disabled")
		} else {
			defer redisClient.Close()
			cache = redisdb.NewBoardIDCache(redisClient, log)
		}
	}

	store := mongodb.NewStore(db, cache, log)
	if err := store.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to create indexes")
	}

	session := service.NewSessionService(
		store,
		crypto.NewBcryptHasher(),
		service.NewTokenSigner(cfg.SessionSecret, 24*time.Hour),
		log,
	)

	runShell(ctx, session)
}

// runShell is a deliberately thin presentation layer: it tokenises lines from
// stdin and calls the session service with plain string arguments.
func runShell(ctx context.Context, session *service.SessionService) {
	fmt.Println("taskdeck — type 'help' for commands")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		args := strings.Fields(scanner.Text())
		if len(args) == 0 {
			continue
		}
		if args[0] == "quit" || args[0] == "exit" {
			return
		}
		if err := dispatch(ctx, session, args); err != nil {
			fmt.Println("error:", err)
		}
	}
}

func dispatch(ctx context.Context, session *service.SessionService, args []string) error {
	switch args[0] {
	case "help":
		fmt.Print(`commands:
  register <user> <pass>             create an account
  login <user> <pass>                log in
  whoami                             show the logged-in user
  boards                             list boards
  tasks <kind>                       list tasks on a board
  add <kind> <title...>              add a task
  due <kind> <title...> <dd/mm/yyyy> set a task due date
  del <kind> <title...>              delete a task (owner: everywhere)
  move <from> <to> <title...>        move a task between boards
  share <kind> <user> <title...>     share a task
  unshare <kind> <user> <title...>   stop sharing a task
  shared <kind> <title...>           list users a task is shared with
  users                              list other registered users
  quit
kinds: university, work, freetime
`)
		return nil
	case "register", "login":
		if len(args) != 3 {
			return fmt.Errorf("usage: %s <user> <pass>", args[0])
		}
		var err error
		if args[0] == "register" {
			_, err = session.Register(ctx, args[1], args[2])
		} else {
			_, err = session.Login(ctx, args[1], args[2])
		}
		if err == nil {
			fmt.Println("ok, logged in as", args[1])
		}
		return err
	case "whoami":
		if name := session.LoggedInUsername(); name != "" {
			fmt.Println(name)
		} else {
			fmt.Println("not logged in")
		}
		return nil
	case "boards":
		for _, b := range session.Boards() {
			fmt.Printf("%-12s %d task(s)\n", b.Kind(), b.Len())
		}
		return nil
	case "tasks":
		if len(args) != 2 {
			return fmt.Errorf("usage: tasks <kind>")
		}
		return printTasks(session, kindArg(args[1]))
	case "add":
		if len(args) < 3 {
			return fmt.Errorf("usage: add <kind> <title...>")
		}
		_, err := session.AddTask(ctx, ports.AddTaskInput{
			BoardKind: kindArg(args[1]),
			Title:     strings.Join(args[2:], " "),
			Owner:     session.LoggedInUsername(),
		})
		return err
	case "due":
		if len(args) < 4 {
			return fmt.Errorf("usage: due <kind> <title...> <dd/mm/yyyy>")
		}
		// UpdateTask replaces content wholesale, so carry the current
		// fields over and change only the due date.
		task, err := findTask(session, kindArg(args[1]), strings.Join(args[2:len(args)-1], " "))
		if err != nil {
			return err
		}
		return session.UpdateTask(ctx, ports.UpdateTaskInput{
			BoardKind:   kindArg(args[1]),
			Title:       task.Title(),
			Description: task.Description(),
			DueDate:     args[len(args)-1],
			URL:         task.URL(),
			Color:       task.Color(),
			Image:       task.Image(),
			Status:      task.Status(),
			Activities:  task.Activities(),
			Owner:       session.LoggedInUsername(),
		})
	case "del":
		if len(args) < 3 {
			return fmt.Errorf("usage: del <kind> <title...>")
		}
		return session.DeleteTask(ctx, kindArg(args[1]), strings.Join(args[2:], " "))
	case "move":
		if len(args) < 4 {
			return fmt.Errorf("usage: move <from> <to> <title...>")
		}
		return session.MoveTask(ctx, strings.Join(args[3:], " "), kindArg(args[1]), kindArg(args[2]))
	case "share", "unshare":
		if len(args) < 4 {
			return fmt.Errorf("usage: %s <kind> <user> <title...>", args[0])
		}
		task, err := findTask(session, kindArg(args[1]), strings.Join(args[3:], " "))
		if err != nil {
			return err
		}
		var result *ports.ShareResult
		if args[0] == "share" {
			result, err = session.ShareTask(ctx, task, []string{args[2]})
		} else {
			result, err = session.UnshareTask(ctx, task, []string{args[2]})
		}
		if err != nil {
			return err
		}
		for username, failure := range result.Failures {
			fmt.Printf("%s: %v\n", username, failure)
		}
		return nil
	case "shared":
		if len(args) < 3 {
			return fmt.Errorf("usage: shared <kind> <title...>")
		}
		usernames, err := session.ListSharedUsers(ctx, kindArg(args[1]), strings.Join(args[2:], " "))
		if err != nil {
			return err
		}
		fmt.Println(strings.Join(usernames, ", "))
		return nil
	case "users":
		usernames, err := session.ListUsers(ctx)
		if err != nil {
			return err
		}
		fmt.Println(strings.Join(usernames, ", "))
		return nil
	default:
		return fmt.Errorf("unknown command %q, try 'help'", args[0])
	}
}

func printTasks(session *service.SessionService, kindText string) error {
	kind, err := domain.ParseBoardKind(kindText)
	if err != nil {
		return err
	}
	for _, b := range session.Boards() {
		if b.Kind() != kind {
			continue
		}
		for _, t := range b.Tasks() {
			line := fmt.Sprintf("%2d. %s", t.Position(), t.Title())
			if !t.DueDate().IsZero() {
				line += "  due " + domain.FormatDueDate(t.DueDate())
				if t.DueToday(time.Now()) {
					line += " (today)"
				}
			}
			if t.Done() {
				line += "  [done]"
			}
			if !session.IsOwner(t) {
				line += "  (shared by " + t.Owner() + ")"
			}
			fmt.Println(line)
		}
		return nil
	}
	return domain.ErrBoardNotFound
}

func findTask(session *service.SessionService, kindText, title string) (*domain.Task, error) {
	kind, err := domain.ParseBoardKind(kindText)
	if err != nil {
		return nil, err
	}
	for _, b := range session.Boards() {
		if b.Kind() != kind {
			continue
		}
		if task, ok := b.TaskByTitle(title); ok {
			return task, nil
		}
	}
	return nil, domain.ErrTaskNotFound
}

// kindArg maps the shell's lowercase kind shorthands to display strings.
func kindArg(s string) string {
	switch strings.ToLower(s) {
	case "university":
		return domain.BoardUniversity.String()
	case "work":
		return domain.BoardWork.String()
	case "freetime", "free-time":
		return domain.BoardFreeTime.String()
	default:
		return s
	}
}
