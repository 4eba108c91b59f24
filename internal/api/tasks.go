package api

import (
	"sync"
	"time"

	"github.com/google/uuid"

	neaterrors "github.com/neatgraph/neatgraph/pkg/errors"
)

// busyRetryAfter is the Retry-After hint (seconds) handed to clients
// when the async queue is full.
const busyRetryAfter = 5

// TaskStatus is the lifecycle state of an async layout task.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskRunning   TaskStatus = "running"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
)

// Task is one asynchronous layout request. Status, error and result are
// guarded by the mutex; ID and CreatedAt never change after Begin.
type Task struct {
	ID        string
	CreatedAt time.Time

	mu     sync.RWMutex
	status TaskStatus
	err    string
	result *layoutResponse
}

// TaskView is the JSON projection of a task at one point in time.
type TaskView struct {
	ID        string          `json:"id"`
	Status    TaskStatus      `json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
	Error     string          `json:"error,omitempty"`
	Result    *layoutResponse `json:"result,omitempty"`
}

// View snapshots the task under its lock.
func (t *Task) View() TaskView {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return TaskView{
		ID:        t.ID,
		Status:    t.status,
		CreatedAt: t.CreatedAt,
		Error:     t.err,
		Result:    t.result,
	}
}

// TaskManager tracks async layout tasks and bounds how many may be in
// flight at once. Finished tasks stay queryable until the server exits.
type TaskManager struct {
	mu     sync.RWMutex
	tasks  map[string]*Task
	active int
	limit  int
}

// NewTaskManager returns a manager admitting at most limit concurrent
// tasks. A limit of zero or less means unbounded.
func NewTaskManager(limit int) *TaskManager {
	return &TaskManager{tasks: make(map[string]*Task), limit: limit}
}

// Begin registers a new pending task. When the in-flight limit is
// reached it fails with a BusyError, which the HTTP layer turns into a
// 503 with a Retry-After hint.
func (tm *TaskManager) Begin() (*Task, error) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	if tm.limit > 0 && tm.active >= tm.limit {
		return nil, &neaterrors.BusyError{RetryAfter: busyRetryAfter, Message: "layout queue full"}
	}
	t := &Task{
		ID:        uuid.New().String(),
		CreatedAt: time.Now(),
		status:    TaskPending,
	}
	tm.tasks[t.ID] = t
	tm.active++
	tasksActive.Inc()
	return t, nil
}

// Get looks up a task by ID.
func (tm *TaskManager) Get(id string) (*Task, bool) {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	t, ok := tm.tasks[id]
	return t, ok
}

// Start moves a pending task to running.
func (tm *TaskManager) Start(t *Task) {
	t.mu.Lock()
	t.status = TaskRunning
	t.mu.Unlock()
}

// Complete stores the result and releases the task's in-flight slot.
func (tm *TaskManager) Complete(t *Task, res *layoutResponse) {
	t.mu.Lock()
	t.status = TaskCompleted
	t.result = res
	t.mu.Unlock()
	tm.release()
}

// Fail records the error and releases the task's in-flight slot.
func (tm *TaskManager) Fail(t *Task, err error) {
	t.mu.Lock()
	t.status = TaskFailed
	t.err = err.Error()
	t.mu.Unlock()
	tm.release()
}

func (tm *TaskManager) release() {
	tm.mu.Lock()
	tm.active--
	tm.mu.Unlock()
	tasksActive.Dec()
}
