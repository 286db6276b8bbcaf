package activity

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/ativix/ativix/internal/domain/model"
	"github.com/ativix/ativix/internal/domain/repository"
	"github.com/ativix/ativix/internal/mocks"
	"github.com/ativix/ativix/internal/testutils"
	apperrors "github.com/ativix/ativix/pkg/errors"
	"github.com/ativix/ativix/pkg/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	admin  = &model.User{ID: "a1", Username: "ana", Role: model.RoleAdmin}
	member = &model.User{ID: "u1", Username: "bruno", Role: model.RoleUser}
	fixed  = time.Date(2024, 3, 10, 14, 0, 0, 0, time.UTC)
)

type fixture struct {
	repo    *mocks.MockActivityRepository
	users   *mocks.MockUserRepository
	reports *mocks.MockReportInvalidator
	service *Service
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{
		repo:    new(mocks.MockActivityRepository),
		users:   new(mocks.MockUserRepository),
		reports: new(mocks.MockReportInvalidator),
	}
	f.service = NewService(f.repo, f.users, f.reports, testutils.TestLogger(t))
	f.service.now = func() time.Time { return fixed }
	return f
}

func pending(id string, version int) *model.Activity {
	return &model.Activity{ID: id, Title: "Revisar contrato", Status: model.StatusPending, Version: version}
}

func requireAPIError(t *testing.T, err error, code int, msg string) {
	t.Helper()
	apiErr, ok := apperrors.As(err)
	require.True(t, ok, "esperava APIError, obteve %v", err)
	assert.Equal(t, code, apiErr.Code)
	if msg != "" {
		assert.Equal(t, msg, apiErr.Message)
	}
}

func TestConclude_SetsRequesterAsConcluidoPor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.repo.On("GetByID", ctx, "at-1").Return(pending("at-1", 3), nil)
	f.repo.On("Update", ctx, "at-1", mock.MatchedBy(func(c repository.ActivityChanges) bool {
		return c.Status != nil && *c.Status == model.StatusDone &&
			c.ConcluidoPor != nil && *c.ConcluidoPor == "bruno" &&
			c.CompletedAt != nil && c.CompletedAt.Equal(fixed) &&
			c.ExpectedVersion == 3
	})).Return(&model.Activity{ID: "at-1", Status: model.StatusDone, Version: 4}, nil)
	f.reports.On("Invalidate", ctx).Return()

	updated, err := f.service.Conclude(ctx, member, "at-1", 0)
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Version)
	f.repo.AssertExpectations(t)
	f.reports.AssertNumberOfCalls(t, "Invalidate", 1)
}

func TestConclude_AlreadyDone(t *testing.T) {
	f := newFixture(t)
	done := pending("at-1", 2)
	done.Status = model.StatusDone
	f.repo.On("GetByID", mock.Anything, "at-1").Return(done, nil)

	_, err := f.service.Conclude(context.Background(), member, "at-1", 0)
	requireAPIError(t, err, http.StatusBadRequest, MsgAlreadyDone)
	f.repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestConclude_StaleVersionIsConflict(t *testing.T) {
	f := newFixture(t)
	f.repo.On("GetByID", mock.Anything, "at-1").Return(pending("at-1", 5), nil)
	f.repo.On("Update", mock.Anything, "at-1", mock.MatchedBy(func(c repository.ActivityChanges) bool {
		return c.ExpectedVersion == 4
	})).Return(nil, repository.ErrVersionConflict)

	_, err := f.service.Conclude(context.Background(), member, "at-1", 4)
	requireAPIError(t, err, http.StatusConflict, "")
	f.reports.AssertNotCalled(t, "Invalidate", mock.Anything)
}

func TestGet_NotFound(t *testing.T) {
	f := newFixture(t)
	f.repo.On("GetByID", mock.Anything, "nada").Return(nil, repository.ErrActivityNotFound)

	_, err := f.service.Get(context.Background(), "nada")
	requireAPIError(t, err, http.StatusNotFound, MsgNotFound)
}

func TestCreate(t *testing.T) {
	t.Run("título obrigatório", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.service.Create(context.Background(), member, CreateInput{Title: "   "})
		requireAPIError(t, err, http.StatusBadRequest, MsgTitleRequired)

		apiErr, _ := apperrors.As(err)
		assert.Equal(t, []validation.FieldError{{Field: "title", Rule: "notblank", Message: MsgTitleRequired}}, apiErr.Details)
		f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("título longo", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.service.Create(context.Background(), member, CreateInput{Title: strings.Repeat("á", 201)})
		requireAPIError(t, err, http.StatusBadRequest, MsgTitleTooLong)
	})

	t.Run("usuário comum não fixa na criação", func(t *testing.T) {
		f := newFixture(t)
		who := "carla"
		_, err := f.service.Create(context.Background(), member, CreateInput{Title: "Nova", AssignedTo: &who})
		requireAPIError(t, err, http.StatusForbidden, MsgAdminOnly)
	})

	t.Run("pendente criada pelo solicitante", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		who := "carla"
		f.users.On("GetByUsername", ctx, "carla").Return(&model.UserEntity{Username: "carla"}, nil)
		f.repo.On("Create", ctx, mock.AnythingOfType("*model.Activity")).Return(nil)
		f.reports.On("Invalidate", ctx).Return()

		a, err := f.service.Create(ctx, admin, CreateInput{Title: "  Nova  ", Description: "x", AssignedTo: &who})
		require.NoError(t, err)
		assert.Equal(t, "Nova", a.Title)
		assert.Equal(t, model.StatusPending, a.Status)
		assert.Equal(t, "ana", a.CreatedBy)
		require.NotNil(t, a.AssignedTo)
		assert.Equal(t, "carla", *a.AssignedTo)
		assert.Nil(t, a.ConcluidoPor)
	})
}

func TestUpdate(t *testing.T) {
	t.Run("somente admin altera título", func(t *testing.T) {
		f := newFixture(t)
		f.repo.On("GetByID", mock.Anything, "at-1").Return(pending("at-1", 1), nil)
		title := "Outro"
		_, err := f.service.Update(context.Background(), member, "at-1", UpdateInput{Title: &title})
		requireAPIError(t, err, http.StatusForbidden, MsgAdminOnly)
	})

	t.Run("status finalizada conclui", func(t *testing.T) {
		f := newFixture(t)
		f.repo.On("GetByID", mock.Anything, "at-1").Return(pending("at-1", 1), nil)
		f.repo.On("Update", mock.Anything, "at-1", mock.MatchedBy(func(c repository.ActivityChanges) bool {
			return c.ConcluidoPor != nil && *c.ConcluidoPor == "bruno" && c.ExpectedVersion == 1
		})).Return(&model.Activity{ID: "at-1", Status: model.StatusDone, Version: 2}, nil)
		f.reports.On("Invalidate", mock.Anything).Return()

		status := "finalizada"
		a, err := f.service.Update(context.Background(), member, "at-1", UpdateInput{Status: &status})
		require.NoError(t, err)
		assert.Equal(t, model.StatusDone, a.Status)
	})

	t.Run("reabrir é inválido", func(t *testing.T) {
		f := newFixture(t)
		done := pending("at-1", 2)
		done.Status = model.StatusDone
		f.repo.On("GetByID", mock.Anything, "at-1").Return(done, nil)

		status := "pendente"
		_, err := f.service.Update(context.Background(), admin, "at-1", UpdateInput{Status: &status})
		requireAPIError(t, err, http.StatusBadRequest, MsgInvalidTransition)
	})

	t.Run("título vazio", func(t *testing.T) {
		f := newFixture(t)
		title := " "
		_, err := f.service.Update(context.Background(), admin, "at-1", UpdateInput{Title: &title})
		requireAPIError(t, err, http.StatusBadRequest, MsgTitleRequired)
		f.repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("status desconhecido", func(t *testing.T) {
		f := newFixture(t)
		f.repo.On("GetByID", mock.Anything, "at-1").Return(pending("at-1", 1), nil)
		status := "arquivada"
		_, err := f.service.Update(context.Background(), admin, "at-1", UpdateInput{Status: &status})
		requireAPIError(t, err, http.StatusBadRequest, MsgInvalidStatus)
	})
}

func TestAssign(t *testing.T) {
	t.Run("somente admin", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.service.Assign(context.Background(), member, "at-1", "carla", 0)
		requireAPIError(t, err, http.StatusForbidden, MsgAdminOnly)
	})

	t.Run("somente pendentes", func(t *testing.T) {
		f := newFixture(t)
		done := pending("at-1", 1)
		done.Status = model.StatusDone
		f.repo.On("GetByID", mock.Anything, "at-1").Return(done, nil)

		_, err := f.service.Assign(context.Background(), admin, "at-1", "carla", 0)
		requireAPIError(t, err, http.StatusBadRequest, MsgAssignNotPending)
	})

	t.Run("usuário inexistente", func(t *testing.T) {
		f := newFixture(t)
		f.repo.On("GetByID", mock.Anything, "at-1").Return(pending("at-1", 1), nil)
		f.users.On("GetByUsername", mock.Anything, "zeca").Return(nil, repository.ErrUserNotFound)

		_, err := f.service.Assign(context.Background(), admin, "at-1", "zeca", 0)
		requireAPIError(t, err, http.StatusBadRequest, MsgAssigneeNotFound)
	})

	t.Run("vazio remove o responsável", func(t *testing.T) {
		f := newFixture(t)
		f.repo.On("GetByID", mock.Anything, "at-1").Return(pending("at-1", 7), nil)
		f.repo.On("Update", mock.Anything, "at-1", mock.MatchedBy(func(c repository.ActivityChanges) bool {
			return c.AssignedTo != nil && *c.AssignedTo == nil && c.ExpectedVersion == 7
		})).Return(pending("at-1", 8), nil)
		f.reports.On("Invalidate", mock.Anything).Return()

		a, err := f.service.Assign(context.Background(), admin, "at-1", "", 0)
		require.NoError(t, err)
		assert.Nil(t, a.AssignedTo)
	})
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	err := f.service.Delete(context.Background(), member, "at-1")
	requireAPIError(t, err, http.StatusForbidden, MsgAdminOnly)

	f.repo.On("Delete", mock.Anything, "nada").Return(repository.ErrActivityNotFound)
	err = f.service.Delete(context.Background(), admin, "nada")
	requireAPIError(t, err, http.StatusNotFound, MsgNotFound)
}

func TestComments(t *testing.T) {
	t.Run("texto vazio", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.service.AddComment(context.Background(), member, "at-1", " \n ")
		requireAPIError(t, err, http.StatusBadRequest, MsgCommentRequired)
		f.repo.AssertNotCalled(t, "AddComment", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("texto longo", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.service.EditComment(context.Background(), member, "at-1", "c1", strings.Repeat("x", 2001))
		requireAPIError(t, err, http.StatusBadRequest, MsgCommentTooLong)
		f.repo.AssertNotCalled(t, "GetComment", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("autor é o solicitante", func(t *testing.T) {
		f := newFixture(t)
		f.repo.On("AddComment", mock.Anything, "at-1", mock.MatchedBy(func(c *model.Comment) bool {
			return c.Autor == "bruno" && c.Texto == "ok"
		})).Return(nil)

		c, err := f.service.AddComment(context.Background(), member, "at-1", " ok ")
		require.NoError(t, err)
		assert.Equal(t, "bruno", c.Autor)
	})

	t.Run("outro usuário não edita", func(t *testing.T) {
		f := newFixture(t)
		f.repo.On("GetComment", mock.Anything, "at-1", "c1").Return(&model.Comment{ID: "c1", Autor: "carla", Texto: "x"}, nil)

		_, err := f.service.EditComment(context.Background(), member, "at-1", "c1", "novo")
		requireAPIError(t, err, http.StatusForbidden, MsgCommentForbidden)

		err = f.service.DeleteComment(context.Background(), member, "at-1", "c1")
		requireAPIError(t, err, http.StatusForbidden, MsgCommentForbidden)
		f.repo.AssertNotCalled(t, "DeleteComment", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("admin edita qualquer comentário", func(t *testing.T) {
		f := newFixture(t)
		f.repo.On("GetComment", mock.Anything, "at-1", "c1").Return(&model.Comment{ID: "c1", Autor: "carla", Texto: "x"}, nil)
		f.repo.On("UpdateComment", mock.Anything, "at-1", "c1", "novo").Return(&model.Comment{ID: "c1", Autor: "carla", Texto: "novo"}, nil)

		c, err := f.service.EditComment(context.Background(), admin, "at-1", "c1", "novo")
		require.NoError(t, err)
		assert.Equal(t, "novo", c.Texto)
		assert.Equal(t, "carla", c.Autor)
	})

	t.Run("comentário inexistente", func(t *testing.T) {
		f := newFixture(t)
		f.repo.On("GetComment", mock.Anything, "at-1", "c9").Return(nil, repository.ErrCommentNotFound)

		err := f.service.DeleteComment(context.Background(), admin, "at-1", "c9")
		requireAPIError(t, err, http.StatusNotFound, MsgCommentNotFound)
	})
}

func TestList_InvalidStatus(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.List(context.Background(), "qualquer", "")
	requireAPIError(t, err, http.StatusBadRequest, MsgInvalidStatus)
}
