package session

import (
	"sync"

	"github.com/google/uuid"
)

type JobState string

const (
	JobRunning JobState = "running"
	JobStopped JobState = "stopped"
	JobDone    JobState = "done"
)

// Job tracks one backgrounded pipeline. PID is the user-visible job number
// (spec.md's jobs/fg/bg/kill surface); Token is an internal uuid used only
// to correlate post_message/read_messages effects without exposing an
// implementation-detail identifier to the user-visible PID numbering.
type Job struct {
	PID     int
	Token   uuid.UUID
	Command string
	State   JobState
	Owner   string
}

// JobTable is the PID->Job map the executor's jobs/fg/bg/kill commands
// operate over, plus a small FIFO message queue per job used by
// post_message/read_messages.
type JobTable struct {
	mu       sync.Mutex
	jobs     map[int]*Job
	nextPID  int
	messages map[uuid.UUID][]string
}

func NewJobTable() *JobTable {
	return &JobTable{jobs: map[int]*Job{}, nextPID: 1, messages: map[uuid.UUID][]string{}}
}

func (t *JobTable) Spawn(command, owner string) *Job {
	t.mu.Lock()
	defer t.mu.Unlock()
	job := &Job{
		PID:     t.nextPID,
		Token:   uuid.New(),
		Command: command,
		State:   JobRunning,
		Owner:   owner,
	}
	t.jobs[job.PID] = job
	t.nextPID++
	return job
}

func (t *JobTable) Get(pid int) (*Job, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	j, ok := t.jobs[pid]
	return j, ok
}

func (t *JobTable) SetState(pid int, state JobState) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	j, ok := t.jobs[pid]
	if !ok {
		return ErrJobNotFound
	}
	j.State = state
	return nil
}

func (t *JobTable) Remove(pid int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if j, ok := t.jobs[pid]; ok {
		delete(t.messages, j.Token)
	}
	delete(t.jobs, pid)
}

func (t *JobTable) All() []*Job {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*Job, 0, len(t.jobs))
	for _, j := range t.jobs {
		out = append(out, j)
	}
	return out
}

// PostMessage appends to the target job's queue, identified by its
// user-visible PID.
func (t *JobTable) PostMessage(pid int, message string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	j, ok := t.jobs[pid]
	if !ok {
		return ErrJobNotFound
	}
	t.messages[j.Token] = append(t.messages[j.Token], message)
	return nil
}

// ReadMessages drains and returns all queued messages for pid.
func (t *JobTable) ReadMessages(pid int) ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	j, ok := t.jobs[pid]
	if !ok {
		return nil, ErrJobNotFound
	}
	msgs := t.messages[j.Token]
	delete(t.messages, j.Token)
	return msgs, nil
}
