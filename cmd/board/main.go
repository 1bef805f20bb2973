// board is a terminal client for the task service: it logs in, prints the
// three status columns and moves, adds, edits or removes tasks.
//
// Usage:
//
//	board [--server URL] [--session FILE] <command> [flags]
//
// Commands: register, login, logout, show, add, move, edit, rm.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"taskboard/internal/board"
	"taskboard/internal/client"
	"taskboard/internal/domain/models"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

const defaultServer = "http://localhost:8080"

type app struct {
	server      string
	sessionPath string
	out         io.Writer
}

func main() {
	log.SetLevel(log.WarnLevel)
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	a := &app{out: out}

	global := pflag.NewFlagSet("board", pflag.ContinueOnError)
	global.SetInterspersed(false)
	global.StringVar(&a.server, "server", "", "task service URL (default: the logged-in server or "+defaultServer+")")
	global.StringVar(&a.sessionPath, "session", defaultSessionPath(), "session file")
	if err := global.Parse(args); err != nil {
		return err
	}

	rest := global.Args()
	if len(rest) == 0 {
		return fmt.Errorf("missing command: register, login, logout, show, add, move, edit or rm")
	}

	cmd, cmdArgs := rest[0], rest[1:]
	switch cmd {
	case "register":
		return a.register(ctx, cmdArgs)
	case "login":
		return a.login(ctx, cmdArgs)
	case "logout":
		return a.logout(ctx)
	case "show":
		return a.show(ctx, cmdArgs)
	case "add":
		return a.add(ctx, cmdArgs)
	case "move":
		return a.move(ctx, cmdArgs)
	case "edit":
		return a.edit(ctx, cmdArgs)
	case "rm":
		return a.remove(ctx, cmdArgs)
	}
	return fmt.Errorf("unknown command %q", cmd)
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "taskboard", "session.json")
}

func (a *app) client(session *client.Session) *client.Client {
	url := a.server
	if url == "" && session != nil {
		url = session.BaseURL
	}
	if url == "" {
		url = defaultServer
	}
	return client.New(url, nil)
}

// connect opens the saved session and returns a coordinator whose board has
// been loaded from the server.
func (a *app) connect(ctx context.Context) (context.Context, *board.Coordinator, error) {
	session, err := client.Open(a.sessionPath)
	if err != nil {
		return nil, nil, err
	}
	ctx = client.WithSession(ctx, session)
	coord := board.NewCoordinator(board.New(), a.client(session))
	if err := coord.Refresh(ctx); err != nil {
		return nil, nil, err
	}
	return ctx, coord, nil
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("register", pflag.ContinueOnError)
	var req models.RegisterRequest
	fs.StringVarP(&req.Username, "username", "u", "", "username")
	fs.StringVarP(&req.Email, "email", "e", "", "email")
	fs.StringVarP(&req.Password, "password", "p", "", "password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	c := a.client(nil)
	session, err := c.Register(ctx, req)
	if err != nil {
		return err
	}
	return a.saveSession(session)
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("login", pflag.ContinueOnError)
	var req models.LoginRequest
	fs.StringVarP(&req.Username, "username", "u", "", "username")
	fs.StringVarP(&req.Password, "password", "p", "", "password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	c := a.client(nil)
	session, err := c.Login(ctx, req)
	if err != nil {
		return err
	}
	return a.saveSession(session)
}

func (a *app) saveSession(session *client.Session) error {
	if err := session.Save(a.sessionPath); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "logged in as %s\n", session.Username)
	return nil
}

func (a *app) logout(ctx context.Context) error {
	session, err := client.Open(a.sessionPath)
	if err != nil {
		return err
	}
	if err := a.client(session).Logout(client.WithSession(ctx, session)); err != nil {
		log.WithError(err).Warn("server logout failed")
	}
	if err := session.Close(); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "logged out")
	return nil
}

func (a *app) show(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("show", pflag.ContinueOnError)
	status := fs.StringP("status", "s", "", "only this column")
	if err := fs.Parse(args); err != nil {
		return err
	}
	columns := models.Statuses
	if *status != "" {
		st, ok := models.ParseStatus(*status)
		if !ok {
			return fmt.Errorf("unknown status %q", *status)
		}
		columns = []models.Status{st}
	}

	_, coord, err := a.connect(ctx)
	if err != nil {
		return err
	}
	printBoard(a.out, coord.Board(), columns, time.Now())
	return nil
}

func (a *app) add(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("add", pflag.ContinueOnError)
	title := fs.StringP("title", "t", "", "title")
	description := fs.StringP("description", "d", "", "description")
	due := fs.String("due", "", "due date, YYYY-MM-DD or RFC 3339")
	status := fs.StringP("status", "s", "", "initial status (default pending)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	req := models.CreateTaskRequest{Title: *title, Description: *description}
	if *due != "" {
		d, err := models.ParseDueDate(*due)
		if err != nil {
			return err
		}
		req.DueDate = &d
	}
	if *status != "" {
		st := models.Status(*status)
		req.Status = &st
	}

	ctx, coord, err := a.connect(ctx)
	if err != nil {
		return err
	}
	task, err := coord.Create(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "added %s\n", task.ID)
	return nil
}

// move drags a task to another column, or to another slot of its own
// column with --index.
func (a *app) move(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("move", pflag.ContinueOnError)
	index := fs.IntP("index", "i", 0, "position in the destination column")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("usage: move <task-id> <status> [--index N]")
	}
	id := fs.Arg(0)
	dest, ok := models.ParseStatus(fs.Arg(1))
	if !ok {
		return fmt.Errorf("unknown status %q", fs.Arg(1))
	}

	ctx, coord, err := a.connect(ctx)
	if err != nil {
		return err
	}
	_, from, found := coord.Board().Find(id)
	if !found {
		return fmt.Errorf("task %s is not on the board", id)
	}
	if err := coord.BeginDrag(id, from); err != nil {
		return err
	}
	outcome, err := coord.Drop(ctx, &board.Position{Status: dest, Index: *index})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s %s -> %s\n", outcome, from.Status, dest)
	return nil
}

func (a *app) edit(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("edit", pflag.ContinueOnError)
	title := fs.StringP("title", "t", "", "new title")
	description := fs.StringP("description", "d", "", "new description")
	due := fs.String("due", "", "new due date")
	status := fs.StringP("status", "s", "", "new status")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: edit <task-id> [--title T] [--description D] [--due DATE] [--status S]")
	}

	var patch models.TaskPatch
	if fs.Changed("title") {
		patch.Title = title
	}
	if fs.Changed("description") {
		patch.Description = description
	}
	if fs.Changed("status") {
		st := models.Status(*status)
		patch.Status = &st
	}
	if fs.Changed("due") {
		d, err := models.ParseDueDate(*due)
		if err != nil {
			return err
		}
		patch.DueDate = &d
	}

	ctx, coord, err := a.connect(ctx)
	if err != nil {
		return err
	}
	task, err := coord.Edit(ctx, fs.Arg(0), patch)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "updated %s\n", task.ID)
	return nil
}

func (a *app) remove(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: rm <task-id>")
	}
	ctx, coord, err := a.connect(ctx)
	if err != nil {
		return err
	}
	if err := coord.Delete(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "removed %s\n", args[0])
	return nil
}

// printBoard renders the columns in order. Unfinished tasks due before now
// are flagged as overdue.
func printBoard(out io.Writer, b *board.Board, columns []models.Status, now time.Time) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, status := range columns {
		tasks := b.Bucket(status)
		fmt.Fprintf(w, "%s (%d)\n", strings.ToUpper(string(status)), len(tasks))
		for _, t := range tasks {
			due := t.DueDate.Format(time.DateOnly)
			if t.Status != models.StatusCompleted && t.DueDate.Before(now) {
				due += " (overdue)"
			}
			fmt.Fprintf(w, "  %s\t%s\tdue %s\n", t.ID, t.Title, due)
		}
	}
	_ = w.Flush()
}
