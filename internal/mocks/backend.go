package mocks

import (
	"context"

	"github.com/brettbedarf/projfs"
	"github.com/stretchr/testify/mock"
)

// MockBackend implements projfs.Backend for testing across packages
type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) List(ctx context.Context, dir string) (*projfs.Listing, error) {
	args := m.Called(ctx, dir)

	// Handle function return types (for listings built from the request)
	if fn, ok := args.Get(0).(func(context.Context, string) *projfs.Listing); ok {
		return fn(ctx, dir), args.Error(1)
	}

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*projfs.Listing), args.Error(1)
}

func (m *MockBackend) Create(ctx context.Context, currentDir, input string) (*projfs.Created, error) {
	args := m.Called(ctx, currentDir, input)

	if fn, ok := args.Get(0).(func(context.Context, string, string) *projfs.Created); ok {
		return fn(ctx, currentDir, input), args.Error(1)
	}

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*projfs.Created), args.Error(1)
}

var _ projfs.Backend = (*MockBackend)(nil)
