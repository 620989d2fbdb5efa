// Package service defines the backend-agnostic interface for task operations.
package service

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when the requested task does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized is returned when the backend rejects the credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidResponse is returned when the backend answers with a payload
	// that does not have the expected shape.
	ErrInvalidResponse = errors.New("invalid response")
)

// Service defines the interface for task backend operations.
// All HTTP calls to the task manager API go through this interface.
// Commands never build requests directly.
type Service interface {
	// CreateTask submits a new task. The backend classifies it and returns
	// the stored record.
	CreateTask(ctx context.Context, task NewTask) (Task, error)

	// GetTask returns a single task by ID.
	GetTask(ctx context.Context, id int) (Task, error)

	// ListUserTasks returns the tasks owned by userID in API order.
	ListUserTasks(ctx context.Context, userID string) ([]Task, error)

	// UpdateTask applies a partial update and returns the updated record.
	UpdateTask(ctx context.Context, id int, update TaskUpdate) (Task, error)

	// DeleteTask deletes a task.
	DeleteTask(ctx context.Context, id int) error

	// ProviderStatus returns the AI provider configuration known to the backend.
	ProviderStatus(ctx context.Context) (ProviderStatus, error)

	// UpdateProvider replaces the AI provider configuration.
	// Returns the backend's confirmation message.
	UpdateProvider(ctx context.Context, cfg ProviderConfig) (string, error)

	// Health checks the backend. If cfg is non-nil the backend also
	// validates that provider configuration.
	Health(ctx context.Context, cfg *ProviderConfig) (HealthStatus, error)
}
