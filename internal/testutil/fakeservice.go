// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"aitask/internal/service"
	"aitask/internal/subtasks"
)

// FakeCreatedAt is the creation time stamped on every task the fake creates.
var FakeCreatedAt = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

// FakeService is an in-memory implementation of service.Service for testing.
type FakeService struct {
	mu       sync.RWMutex
	tasks    []service.Task
	nextID   int
	provider service.ProviderConfig
	health   service.HealthStatus

	// Updates records every UpdateTask call in order.
	Updates []service.TaskUpdate

	// Deleted records the IDs passed to successful DeleteTask calls.
	Deleted []int

	// HealthChecks records the provider config passed to each Health call.
	HealthChecks []*service.ProviderConfig

	// Error injection for testing
	CreateTaskErr     error
	GetTaskErr        error
	ListUserTasksErr  error
	UpdateTaskErr     error
	DeleteTaskErr     map[int]error // task ID -> error
	ProviderStatusErr error
	UpdateProviderErr error
	HealthErr         error
}

// NewFakeService creates an empty FakeService with a healthy backend and no
// provider token.
func NewFakeService() *FakeService {
	return &FakeService{
		nextID:        1,
		DeleteTaskErr: make(map[int]error),
		provider: service.ProviderConfig{
			ProviderURL: "https://api.example.com/v1",
			ModelName:   "gpt-4o-mini",
		},
		health: service.HealthStatus{Status: "healthy", Model: "gpt-4o-mini"},
	}
}

// AddTask stores a task as-is. A zero ID is replaced with the next free ID.
// Returns the stored task.
func (f *FakeService) AddTask(task service.Task) service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	if task.ID == 0 {
		task.ID = f.nextID
	}
	if task.ID >= f.nextID {
		f.nextID = task.ID + 1
	}
	f.tasks = append(f.tasks, task)
	return task
}

// SetHealth sets the status returned by Health.
func (f *FakeService) SetHealth(status service.HealthStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.health = status
}

// Provider returns the provider config last stored through UpdateProvider.
func (f *FakeService) Provider() service.ProviderConfig {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.provider
}

// Tasks returns a copy of all stored tasks.
func (f *FakeService) Tasks() []service.Task {
	f.mu.RLock()
	defer f.mu.RUnlock()
	result := make([]service.Task, len(f.tasks))
	copy(result, f.tasks)
	return result
}

// CreateTask implements service.Service. Like a backend without a working
// AI provider, it fills in default classification values.
func (f *FakeService) CreateTask(ctx context.Context, task service.NewTask) (service.Task, error) {
	if f.CreateTaskErr != nil {
		return service.Task{}, f.CreateTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	minutes := 30
	created := service.Task{
		ID:               f.nextID,
		Title:            task.Title,
		Description:      task.Description,
		UserID:           task.UserID,
		Priority:         service.PriorityMedium,
		Category:         service.CategoryOther,
		EstimatedMinutes: &minutes,
		Subtasks:         subtasks.FromText("[]"),
		CreatedAt:        service.Timestamp{Time: FakeCreatedAt},
		UpdatedAt:        service.Timestamp{Time: FakeCreatedAt},
	}
	f.nextID++
	f.tasks = append(f.tasks, created)
	return created, nil
}

// GetTask implements service.Service.
func (f *FakeService) GetTask(ctx context.Context, id int) (service.Task, error) {
	if f.GetTaskErr != nil {
		return service.Task{}, f.GetTaskErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()

	i := f.indexOf(id)
	if i < 0 {
		return service.Task{}, notFound(id)
	}
	return f.tasks[i], nil
}

// ListUserTasks implements service.Service.
func (f *FakeService) ListUserTasks(ctx context.Context, userID string) ([]service.Task, error) {
	if f.ListUserTasksErr != nil {
		return nil, f.ListUserTasksErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()

	result := []service.Task{}
	for _, t := range f.tasks {
		if t.UserID == userID {
			result = append(result, t)
		}
	}
	return result, nil
}

// UpdateTask implements service.Service.
func (f *FakeService) UpdateTask(ctx context.Context, id int, update service.TaskUpdate) (service.Task, error) {
	if f.UpdateTaskErr != nil {
		return service.Task{}, f.UpdateTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.indexOf(id)
	if i < 0 {
		return service.Task{}, notFound(id)
	}
	f.Updates = append(f.Updates, update)

	t := &f.tasks[i]
	if update.Title != nil {
		t.Title = *update.Title
	}
	if update.Description != nil {
		t.Description = *update.Description
	}
	if update.Priority != nil {
		t.Priority = *update.Priority
	}
	if update.Category != nil {
		t.Category = *update.Category
	}
	if update.EstimatedMinutes != nil {
		minutes := *update.EstimatedMinutes
		t.EstimatedMinutes = &minutes
	}
	if update.Subtasks != nil {
		t.Subtasks = subtasks.FromText(*update.Subtasks)
	}
	return *t, nil
}

// DeleteTask implements service.Service.
func (f *FakeService) DeleteTask(ctx context.Context, id int) error {
	if err, ok := f.DeleteTaskErr[id]; ok && err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.indexOf(id)
	if i < 0 {
		return notFound(id)
	}
	f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
	f.Deleted = append(f.Deleted, id)
	return nil
}

// ProviderStatus implements service.Service.
func (f *FakeService) ProviderStatus(ctx context.Context) (service.ProviderStatus, error) {
	if f.ProviderStatusErr != nil {
		return service.ProviderStatus{}, f.ProviderStatusErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	return service.ProviderStatus{
		ProviderURL:   f.provider.ProviderURL,
		Model:         f.provider.ModelName,
		HasValidToken: f.provider.APIToken != "",
	}, nil
}

// UpdateProvider implements service.Service.
func (f *FakeService) UpdateProvider(ctx context.Context, cfg service.ProviderConfig) (string, error) {
	if f.UpdateProviderErr != nil {
		return "", f.UpdateProviderErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.provider = cfg
	return "Configuration updated successfully", nil
}

// Health implements service.Service.
func (f *FakeService) Health(ctx context.Context, cfg *service.ProviderConfig) (service.HealthStatus, error) {
	f.mu.Lock()
	f.HealthChecks = append(f.HealthChecks, cfg)
	f.mu.Unlock()

	if f.HealthErr != nil {
		return service.HealthStatus{}, f.HealthErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.health, nil
}

func (f *FakeService) indexOf(id int) int {
	for i, t := range f.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func notFound(id int) error {
	return fmt.Errorf("%w: task %d", service.ErrNotFound, id)
}
