// Package storetest provides a testify mock of the typed repositories.
package storetest

import (
	"context"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
)

// MockRepository is a mock implementation of a typed document repository
type MockRepository[T any] struct {
	mock.Mock
}

// NewMockRepository creates a new mock repository
func NewMockRepository[T any]() *MockRepository[T] {
	return &MockRepository[T]{}
}

// List mocks listing every document
func (m *MockRepository[T]) List(ctx context.Context) ([]T, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]T), args.Error(1)
}

// Get mocks fetching one document
func (m *MockRepository[T]) Get(ctx context.Context, id string) (*T, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*T), args.Error(1)
}

// Insert mocks storing a document
func (m *MockRepository[T]) Insert(ctx context.Context, doc *T) (*T, error) {
	args := m.Called(ctx, doc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*T), args.Error(1)
}

// Update mocks a partial update
func (m *MockRepository[T]) Update(ctx context.Context, id string, changes bson.M) (*T, error) {
	args := m.Called(ctx, id, changes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*T), args.Error(1)
}

// Delete mocks removing a document
func (m *MockRepository[T]) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
