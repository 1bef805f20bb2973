// Package board keeps the three status columns of a task board in memory and
// turns drag gestures into a local move plus one persisted status change.
package board

import (
	"fmt"
	"sync"

	"taskboard/internal/domain/errors"
	"taskboard/internal/domain/models"

	log "github.com/sirupsen/logrus"
)

// Position addresses a slot in one column.
type Position struct {
	Status models.Status
	Index  int
}

func (p Position) String() string {
	return fmt.Sprintf("%s[%d]", p.Status, p.Index)
}

// Move relocates TaskID from From to To. To.Index is read against the
// destination column after the task was taken out of its source.
type Move struct {
	TaskID string
	From   Position
	To     Position
}

// Board holds the tasks of one owner split by status. Column order is the
// order the tasks were loaded in, adjusted by local moves.
type Board struct {
	mu      sync.RWMutex
	columns map[models.Status][]models.Task
}

func New() *Board {
	b := &Board{}
	b.reset()
	return b
}

func (b *Board) reset() {
	b.columns = make(map[models.Status][]models.Task, len(models.Statuses))
	for _, s := range models.Statuses {
		b.columns[s] = []models.Task{}
	}
}

// Load replaces every column with tasks, keeping their relative order.
// Tasks whose status is not a known column are dropped.
func (b *Board) Load(tasks []models.Task) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.reset()
	for _, task := range tasks {
		if !task.Status.Valid() {
			log.WithFields(log.Fields{"task": task.ID, "status": task.Status}).Warn("skipping task with unknown status")
			continue
		}
		b.columns[task.Status] = append(b.columns[task.Status], task)
	}
}

// ApplyMove performs m. Moving a task onto its own position changes nothing.
// The destination index is clamped to the column length.
func (b *Board) ApplyMove(m Move) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	src, ok := b.columns[m.From.Status]
	if !ok {
		return fmt.Errorf("%w: %q", errors.ErrUnknownColumn, m.From.Status)
	}
	if _, ok := b.columns[m.To.Status]; !ok {
		return fmt.Errorf("%w: %q", errors.ErrUnknownColumn, m.To.Status)
	}
	if m.From.Index < 0 || m.From.Index >= len(src) {
		return fmt.Errorf("%w: %s", errors.ErrPositionOutOfRange, m.From)
	}
	if src[m.From.Index].ID != m.TaskID {
		return fmt.Errorf("%w: %s at %s", errors.ErrTaskNotAtPosition, m.TaskID, m.From)
	}
	if m.From == m.To {
		return nil
	}

	task := src[m.From.Index]
	b.columns[m.From.Status] = remove(src, m.From.Index)
	task.Status = m.To.Status

	dst := b.columns[m.To.Status]
	b.columns[m.To.Status] = insert(dst, clamp(m.To.Index, len(dst)), task)
	return nil
}

// ApplyCreate puts a task the server accepted at the top of its column.
func (b *Board) ApplyCreate(task models.Task) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	col, ok := b.columns[task.Status]
	if !ok {
		return fmt.Errorf("%w: %q", errors.ErrUnknownColumn, task.Status)
	}
	b.columns[task.Status] = insert(col, 0, task)
	return nil
}

// ApplyDelete removes the task with id and reports whether it was present.
func (b *Board) ApplyDelete(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for status, col := range b.columns {
		for i := range col {
			if col[i].ID == id {
				b.columns[status] = remove(col, i)
				return true
			}
		}
	}
	return false
}

// Bucket returns a copy of one column. Unknown statuses yield nil.
func (b *Board) Bucket(status models.Status) []models.Task {
	b.mu.RLock()
	defer b.mu.RUnlock()

	col, ok := b.columns[status]
	if !ok {
		return nil
	}
	return append([]models.Task(nil), col...)
}

// Snapshot copies all columns.
func (b *Board) Snapshot() map[models.Status][]models.Task {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make(map[models.Status][]models.Task, len(b.columns))
	for status, col := range b.columns {
		out[status] = append([]models.Task{}, col...)
	}
	return out
}

// Find locates a task by id.
func (b *Board) Find(id string) (models.Task, Position, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, status := range models.Statuses {
		for i, task := range b.columns[status] {
			if task.ID == id {
				return task, Position{Status: status, Index: i}, true
			}
		}
	}
	return models.Task{}, Position{}, false
}

// Len is the number of tasks on the board.
func (b *Board) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n := 0
	for _, col := range b.columns {
		n += len(col)
	}
	return n
}

func remove(col []models.Task, i int) []models.Task {
	out := make([]models.Task, 0, len(col)-1)
	out = append(out, col[:i]...)
	return append(out, col[i+1:]...)
}

func insert(col []models.Task, i int, task models.Task) []models.Task {
	out := make([]models.Task, 0, len(col)+1)
	out = append(out, col[:i]...)
	out = append(out, task)
	return append(out, col[i:]...)
}

func clamp(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}
