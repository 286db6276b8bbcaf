package editor

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/ativix/ativix/internal/domain/model"
	"github.com/ativix/ativix/pkg/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type mockAPI struct {
	mock.Mock
}

func (m *mockAPI) ConcludeActivity(ctx context.Context, id string, version int) (*model.Activity, error) {
	args := m.Called(ctx, id, version)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Activity), args.Error(1)
}

func (m *mockAPI) AssignActivity(ctx context.Context, id, username string, version int) (*model.Activity, error) {
	args := m.Called(ctx, id, username, version)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Activity), args.Error(1)
}

func (m *mockAPI) DeleteActivity(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockAPI) AddComment(ctx context.Context, activityID, texto string) (*model.Comment, error) {
	args := m.Called(ctx, activityID, texto)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Comment), args.Error(1)
}

func (m *mockAPI) EditComment(ctx context.Context, activityID, commentID, texto string) (*model.Comment, error) {
	args := m.Called(ctx, activityID, commentID, texto)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Comment), args.Error(1)
}

func (m *mockAPI) DeleteComment(ctx context.Context, activityID, commentID string) error {
	return m.Called(ctx, activityID, commentID).Error(0)
}

func pending() *model.Activity {
	return &model.Activity{ID: "a1", Title: "Trocar toner", Status: model.StatusPending, Version: 3}
}

// recorder conta os eventos recebidos por um inscrito
type recorder struct {
	events []Event
}

func (r *recorder) subscriber(ctx context.Context, ev Event) error {
	r.events = append(r.events, ev)
	return nil
}

func TestConclude(t *testing.T) {
	ctx := context.Background()
	api := new(mockAPI)
	notifier := NewNotifier(zaptest.NewLogger(t))
	rec := &recorder{}
	notifier.Subscribe("lista", rec.subscriber)

	done := &model.Activity{ID: "a1", Status: model.StatusDone, Version: 4}
	api.On("ConcludeActivity", ctx, "a1", 3).Return(done, nil)

	ed := New(api, notifier, nil, zaptest.NewLogger(t))
	got, err := ed.Conclude(ctx, pending())

	require.NoError(t, err)
	assert.Equal(t, 4, got.Version)
	require.Len(t, rec.events, 1)
	assert.Equal(t, Event{Op: OpConclude, ActivityID: "a1"}, rec.events[0])
	api.AssertExpectations(t)
}

func TestConclude_FailureReturnsOpError(t *testing.T) {
	ctx := context.Background()
	api := new(mockAPI)
	rec := &recorder{}
	ed := New(api, nil, nil, zaptest.NewLogger(t))
	ed.Notifier().Subscribe("lista", rec.subscriber)

	serverErr := &client.Error{Status: http.StatusConflict, Message: "O registro foi alterado por outra pessoa."}
	api.On("ConcludeActivity", ctx, "a1", 3).Return(nil, serverErr)

	_, err := ed.Conclude(ctx, pending())

	var opErr *OpError
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, MsgConcludeFailed, opErr.Error())
	assert.Equal(t, OpConclude, opErr.Op)
	assert.Equal(t, "O registro foi alterado por outra pessoa.", opErr.Detail())
	assert.Empty(t, rec.events)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("recusado não chama o servidor", func(t *testing.T) {
		api := new(mockAPI)
		var asked string
		ed := New(api, nil, ConfirmFunc(func(q string) bool { asked = q; return false }), zaptest.NewLogger(t))

		deleted, err := ed.Delete(ctx, pending())
		require.NoError(t, err)
		assert.False(t, deleted)
		assert.Equal(t, ConfirmDelete, asked)
		api.AssertNotCalled(t, "DeleteActivity", mock.Anything, mock.Anything)
	})

	t.Run("confirmado", func(t *testing.T) {
		api := new(mockAPI)
		api.On("DeleteActivity", ctx, "a1").Return(nil)
		ed := New(api, nil, ConfirmFunc(func(string) bool { return true }), zaptest.NewLogger(t))

		deleted, err := ed.Delete(ctx, pending())
		require.NoError(t, err)
		assert.True(t, deleted)
		api.AssertExpectations(t)
	})

	t.Run("falha", func(t *testing.T) {
		api := new(mockAPI)
		api.On("DeleteActivity", ctx, "a1").Return(errors.New("boom"))
		ed := New(api, nil, ConfirmFunc(func(string) bool { return true }), zaptest.NewLogger(t))

		_, err := ed.Delete(ctx, pending())
		assert.EqualError(t, err, MsgDeleteFailed)
	})
}

func TestComments(t *testing.T) {
	ctx := context.Background()

	t.Run("texto em branco é ignorado", func(t *testing.T) {
		api := new(mockAPI)
		ed := New(api, nil, nil, zaptest.NewLogger(t))

		c, err := ed.AddComment(ctx, pending(), "   ")
		require.NoError(t, err)
		assert.Nil(t, c)
		api.AssertNotCalled(t, "AddComment", mock.Anything, mock.Anything, mock.Anything)

		c, err = ed.EditComment(ctx, pending(), "c1", " \t ")
		require.NoError(t, err)
		assert.Nil(t, c)
		api.AssertNotCalled(t, "EditComment", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("adiciona com texto aparado", func(t *testing.T) {
		api := new(mockAPI)
		api.On("AddComment", ctx, "a1", "feito").Return(&model.Comment{ID: "c1", Texto: "feito"}, nil)
		ed := New(api, nil, nil, zaptest.NewLogger(t))

		c, err := ed.AddComment(ctx, pending(), "  feito ")
		require.NoError(t, err)
		assert.Equal(t, "c1", c.ID)
	})

	t.Run("falhas usam o texto de cada ação", func(t *testing.T) {
		api := new(mockAPI)
		api.On("EditComment", ctx, "a1", "c1", "novo").Return(nil, errors.New("x"))
		api.On("DeleteComment", ctx, "a1", "c1").Return(errors.New("x"))
		ed := New(api, nil, nil, zaptest.NewLogger(t))

		_, err := ed.EditComment(ctx, pending(), "c1", "novo")
		assert.EqualError(t, err, MsgEditCommentFailed)

		err = ed.DeleteComment(ctx, pending(), "c1")
		assert.EqualError(t, err, MsgDeleteCommentFailed)
	})
}

func TestAssign(t *testing.T) {
	ctx := context.Background()
	api := new(mockAPI)
	api.On("AssignActivity", ctx, "a1", "joao", 3).Return(&model.Activity{ID: "a1", Version: 4}, nil)
	ed := New(api, nil, nil, zaptest.NewLogger(t))

	got, err := ed.Assign(ctx, pending(), " joao ")
	require.NoError(t, err)
	assert.Equal(t, 4, got.Version)
}
