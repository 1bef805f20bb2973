package board

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"

	"taskboard/internal/domain/errors"
	"taskboard/internal/domain/models"

	log "github.com/sirupsen/logrus"
)

// TaskAPI is the remote side of the board. client.Client implements it.
type TaskAPI interface {
	List(ctx context.Context) ([]models.Task, error)
	Create(ctx context.Context, req models.CreateTaskRequest) (*models.Task, error)
	Update(ctx context.Context, id string, patch models.TaskPatch) (*models.Task, error)
	Delete(ctx context.Context, id string) error
}

type DragState int

const (
	Idle DragState = iota
	Dragging
	Dropped
	Cancelled
)

func (s DragState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	case Dropped:
		return "dropped"
	case Cancelled:
		return "cancelled"
	}
	return fmt.Sprintf("DragState(%d)", int(s))
}

// Coordinator drives one board from drag gestures and board actions. A drop
// is applied to the board first and then persisted with a single status
// update; when that update fails the board is reloaded from the API.
type Coordinator struct {
	board *Board
	api   TaskAPI

	mu     sync.Mutex
	state  DragState
	taskID string
	source Position
}

func NewCoordinator(b *Board, api TaskAPI) *Coordinator {
	if b == nil {
		b = New()
	}
	return &Coordinator{board: b, api: api}
}

func (c *Coordinator) Board() *Board { return c.board }

func (c *Coordinator) State() DragState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// BeginDrag picks up taskID from source.
func (c *Coordinator) BeginDrag(taskID string, source Position) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Idle {
		return errors.ErrDragInProgress
	}
	col := c.board.Bucket(source.Status)
	if col == nil {
		return fmt.Errorf("%w: %q", errors.ErrUnknownColumn, source.Status)
	}
	if source.Index < 0 || source.Index >= len(col) {
		return fmt.Errorf("%w: %s", errors.ErrPositionOutOfRange, source)
	}
	if col[source.Index].ID != taskID {
		return fmt.Errorf("%w: %s at %s", errors.ErrTaskNotAtPosition, taskID, source)
	}

	c.state = Dragging
	c.taskID = taskID
	c.source = source
	return nil
}

// CancelDrag abandons the current drag without touching the board.
func (c *Coordinator) CancelDrag() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Dragging {
		return errors.ErrNoDragInProgress
	}
	c.state = Cancelled
	c.finish()
	return nil
}

// Drop ends the drag at dest and returns how the drag ended. A nil dest
// cancels. Dropping back onto the source position is a no-op. Any other
// drop moves the task on the board and sends one status update carrying
// dest's column; a reorder inside one column is kept locally only.
// If the update fails the board is reloaded and both failures are returned.
func (c *Coordinator) Drop(ctx context.Context, dest *Position) (DragState, error) {
	c.mu.Lock()
	if c.state != Dragging {
		c.mu.Unlock()
		return Idle, errors.ErrNoDragInProgress
	}
	taskID, source := c.taskID, c.source

	if dest == nil {
		c.state = Cancelled
		c.finish()
		c.mu.Unlock()
		return Cancelled, nil
	}

	c.state = Dropped
	if *dest == source {
		c.finish()
		c.mu.Unlock()
		return Dropped, nil
	}

	if err := c.board.ApplyMove(Move{TaskID: taskID, From: source, To: *dest}); err != nil {
		c.state = Cancelled
		c.finish()
		c.mu.Unlock()
		return Cancelled, err
	}
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.finish()
		c.mu.Unlock()
	}()

	status := dest.Status
	if _, err := c.api.Update(ctx, taskID, models.TaskPatch{Status: &status}); err != nil {
		log.WithError(err).WithFields(log.Fields{"task": taskID, "from": source, "to": *dest}).Warn("move not saved, reloading board")
		err = fmt.Errorf("save move of task %s: %w", taskID, err)
		if refreshErr := c.Refresh(ctx); refreshErr != nil {
			return Dropped, stderrors.Join(err, refreshErr)
		}
		return Dropped, err
	}
	return Dropped, nil
}

// finish returns the machine to Idle. Callers hold c.mu.
func (c *Coordinator) finish() {
	c.state = Idle
	c.taskID = ""
	c.source = Position{}
}

// Refresh replaces the board with the tasks the API currently lists.
func (c *Coordinator) Refresh(ctx context.Context) error {
	tasks, err := c.api.List(ctx)
	if err != nil {
		return fmt.Errorf("reload board: %w", err)
	}
	c.board.Load(tasks)
	return nil
}

// Create adds a task through the API. On failure the board is untouched.
func (c *Coordinator) Create(ctx context.Context, req models.CreateTaskRequest) (*models.Task, error) {
	task, err := c.api.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := c.board.ApplyCreate(*task); err != nil {
		log.WithError(err).WithField("task", task.ID).Warn("created task not placed on board")
	}
	c.refreshQuietly(ctx)
	return task, nil
}

// Edit sends patch for id and reloads the board on success.
func (c *Coordinator) Edit(ctx context.Context, id string, patch models.TaskPatch) (*models.Task, error) {
	task, err := c.api.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	c.refreshQuietly(ctx)
	return task, nil
}

// Delete removes id through the API and then from the board.
func (c *Coordinator) Delete(ctx context.Context, id string) error {
	if err := c.api.Delete(ctx, id); err != nil {
		return err
	}
	c.board.ApplyDelete(id)
	c.refreshQuietly(ctx)
	return nil
}

// refreshQuietly reloads after a successful action. The action already
// happened on the server, so a failed reload is only logged.
func (c *Coordinator) refreshQuietly(ctx context.Context) {
	if err := c.Refresh(ctx); err != nil {
		log.WithError(err).Warn("board reload failed")
	}
}
