package mocks

import (
	"context"

	"github.com/ativix/ativix/internal/domain/model"
	"github.com/ativix/ativix/internal/domain/repository"
	"github.com/stretchr/testify/mock"
)

// MockActivityRepository é um mock para o repository.ActivityRepository
type MockActivityRepository struct {
	mock.Mock
}

func (m *MockActivityRepository) List(ctx context.Context, filter repository.ActivityFilter) ([]*model.Activity, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Activity), args.Error(1)
}

func (m *MockActivityRepository) ForReports(ctx context.Context) ([]model.Activity, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Activity), args.Error(1)
}

func (m *MockActivityRepository) GetByID(ctx context.Context, id string) (*model.Activity, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Activity), args.Error(1)
}

func (m *MockActivityRepository) Create(ctx context.Context, activity *model.Activity) error {
	args := m.Called(ctx, activity)
	return args.Error(0)
}

func (m *MockActivityRepository) Update(ctx context.Context, id string, changes repository.ActivityChanges) (*model.Activity, error) {
	args := m.Called(ctx, id, changes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Activity), args.Error(1)
}

func (m *MockActivityRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockActivityRepository) AddComment(ctx context.Context, activityID string, comment *model.Comment) error {
	args := m.Called(ctx, activityID, comment)
	return args.Error(0)
}

func (m *MockActivityRepository) GetComment(ctx context.Context, activityID, commentID string) (*model.Comment, error) {
	args := m.Called(ctx, activityID, commentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Comment), args.Error(1)
}

func (m *MockActivityRepository) UpdateComment(ctx context.Context, activityID, commentID, texto string) (*model.Comment, error) {
	args := m.Called(ctx, activityID, commentID, texto)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Comment), args.Error(1)
}

func (m *MockActivityRepository) DeleteComment(ctx context.Context, activityID, commentID string) error {
	args := m.Called(ctx, activityID, commentID)
	return args.Error(0)
}

// MockReportInvalidator registra as invalidações de relatórios
type MockReportInvalidator struct {
	mock.Mock
}

func (m *MockReportInvalidator) Invalidate(ctx context.Context) {
	m.Called(ctx)
}
