package jobs

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubJob is a minimal Job implementation for queue tests.
type stubJob struct {
	id uuid.UUID
}

func (j *stubJob) ID() uuid.UUID                 { return j.id }
func (j *stubJob) Type() string                  { return "stub" }
func (j *stubJob) Payload() []byte               { return []byte(`{}`) }
func (j *stubJob) Status() JobStatus             { return JobStatusPending }
func (j *stubJob) Execute(context.Context) error { return nil }

func TestJobQueueEnqueueAndConsume(t *testing.T) {
	t.Parallel()

	q := NewJobQueue(2, nil)
	job := &stubJob{id: uuid.New()}

	require.NoError(t, q.Enqueue(job))

	got := <-q.GetChannel()
	assert.Equal(t, job.ID(), got.ID())
}

func TestJobQueueFull(t *testing.T) {
	t.Parallel()

	q := NewJobQueue(1, nil)

	require.NoError(t, q.Enqueue(&stubJob{id: uuid.New()}))

	err := q.Enqueue(&stubJob{id: uuid.New()})
	assert.ErrorIs(t, err, ErrQueueFull)
}

func TestJobQueueClosed(t *testing.T) {
	t.Parallel()

	q := NewJobQueue(1, nil)
	q.Close()

	err := q.Enqueue(&stubJob{id: uuid.New()})
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestJobQueueCloseIsIdempotent(t *testing.T) {
	t.Parallel()

	q := NewJobQueue(1, nil)

	require.NotPanics(t, func() {
		q.Close()
		q.Close()
	})
}

func TestJobQueueDrainsBufferedJobsAfterClose(t *testing.T) {
	t.Parallel()

	q := NewJobQueue(2, nil)
	require.NoError(t, q.Enqueue(&stubJob{id: uuid.New()}))
	require.NoError(t, q.Enqueue(&stubJob{id: uuid.New()}))
	q.Close()

	var count int
	for range q.GetChannel() {
		count++
	}
	assert.Equal(t, 2, count)
}
