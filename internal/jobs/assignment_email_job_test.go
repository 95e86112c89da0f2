package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSender captures sent notifications for assertions.
type recordingSender struct {
	recipients []string
	titles     []string
	err        error
}

func (s *recordingSender) SendTaskAssignmentNotification(_ context.Context, recipient, taskTitle string) error {
	if s.err != nil {
		return s.err
	}
	s.recipients = append(s.recipients, recipient)
	s.titles = append(s.titles, taskTitle)
	return nil
}

func TestNewAssignmentEmailJob(t *testing.T) {
	t.Parallel()

	t.Run("valid job", func(t *testing.T) {
		t.Parallel()

		sender := &recordingSender{}
		job, err := NewAssignmentEmailJob("dev@example.com", "Fix login bug", sender, nil)
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, job.ID())
		assert.Equal(t, JobTypeAssignmentEmail, job.Type())
		assert.Equal(t, JobStatusPending, job.Status())
		assert.JSONEq(t, `{"assigneeEmail":"dev@example.com","taskTitle":"Fix login bug"}`, string(job.Payload()))
	})

	t.Run("nil sender", func(t *testing.T) {
		t.Parallel()

		_, err := NewAssignmentEmailJob("dev@example.com", "Fix login bug", nil, nil)
		assert.ErrorIs(t, err, ErrNilEmailSender)
	})

	t.Run("empty recipient", func(t *testing.T) {
		t.Parallel()

		_, err := NewAssignmentEmailJob("", "Fix login bug", &recordingSender{}, nil)
		assert.ErrorIs(t, err, ErrEmptyRecipient)
	})
}

func TestAssignmentEmailJobExecute(t *testing.T) {
	t.Parallel()

	t.Run("sends notification", func(t *testing.T) {
		t.Parallel()

		sender := &recordingSender{}
		job, err := NewAssignmentEmailJob("dev@example.com", "Fix login bug", sender, nil)
		require.NoError(t, err)

		require.NoError(t, job.Execute(context.Background()))

		assert.Equal(t, []string{"dev@example.com"}, sender.recipients)
		assert.Equal(t, []string{"Fix login bug"}, sender.titles)
	})

	t.Run("propagates sender error", func(t *testing.T) {
		t.Parallel()

		sendErr := errors.New("smtp unavailable")
		sender := &recordingSender{err: sendErr}
		job, err := NewAssignmentEmailJob("dev@example.com", "Fix login bug", sender, nil)
		require.NoError(t, err)

		assert.ErrorIs(t, job.Execute(context.Background()), sendErr)
	})
}

func TestAssignmentEmailJobFactory(t *testing.T) {
	t.Parallel()

	t.Run("rebuilds job from persisted form", func(t *testing.T) {
		t.Parallel()

		sender := &recordingSender{}
		factory := AssignmentEmailJobFactory(sender, nil)

		id := uuid.New()
		payload := []byte(`{"assigneeEmail":"dev@example.com","taskTitle":"Fix login bug"}`)

		job, err := factory(id, payload, JobStatusProcessing)
		require.NoError(t, err)

		assert.Equal(t, id, job.ID())
		assert.Equal(t, JobStatusProcessing, job.Status())

		require.NoError(t, job.Execute(context.Background()))
		assert.Equal(t, []string{"dev@example.com"}, sender.recipients)
	})

	t.Run("rejects malformed payload", func(t *testing.T) {
		t.Parallel()

		factory := AssignmentEmailJobFactory(&recordingSender{}, nil)

		_, err := factory(uuid.New(), []byte("not json"), JobStatusPending)
		assert.Error(t, err)
	})

	t.Run("rejects nil sender", func(t *testing.T) {
		t.Parallel()

		factory := AssignmentEmailJobFactory(nil, nil)

		_, err := factory(uuid.New(), []byte(`{}`), JobStatusPending)
		assert.ErrorIs(t, err, ErrNilEmailSender)
	})
}
