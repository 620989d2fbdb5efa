// Package service defines the backend-agnostic interface for task operations.
package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"aitask/internal/subtasks"
)

// Priority is the urgency the backend assigned to a task.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// Priorities lists the accepted priorities in display order.
var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

// Category is the area of life a task belongs to.
type Category string

const (
	CategoryWork     Category = "Work"
	CategoryPersonal Category = "Personal"
	CategoryLearning Category = "Learning"
	CategoryHealth   Category = "Health"
	CategoryOther    Category = "Other"
)

// Categories lists the accepted categories in display order.
var Categories = []Category{CategoryWork, CategoryPersonal, CategoryLearning, CategoryHealth, CategoryOther}

// ParsePriority matches s case-insensitively against the known priorities.
func ParsePriority(s string) (Priority, error) {
	s = strings.TrimSpace(s)
	for _, p := range Priorities {
		if strings.EqualFold(s, string(p)) {
			return p, nil
		}
	}
	return "", fmt.Errorf("invalid priority: %s (want one of %s)", s, joinValues(Priorities))
}

// ParseCategory matches s case-insensitively against the known categories.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, c := range Categories {
		if strings.EqualFold(s, string(c)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("invalid category: %s (want one of %s)", s, joinValues(Categories))
}

func joinValues[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}

// Task represents a single task record.
type Task struct {
	ID               int            `json:"id"`
	Title            string         `json:"title"`
	Description      string         `json:"description"`
	UserID           string         `json:"user_id"`
	Priority         Priority       `json:"priority"`
	Category         Category       `json:"category"`
	EstimatedMinutes *int           `json:"estimated_time_minutes"`
	Subtasks         subtasks.Field `json:"subtasks"`
	AIProcessed      bool           `json:"ai_processed"`
	CreatedAt        Timestamp      `json:"created_at"`
	UpdatedAt        Timestamp      `json:"updated_at"`
}

// SubtaskList returns the task's subtasks decoded into a list.
func (t Task) SubtaskList() []string {
	return subtasks.Parse(t.Subtasks)
}

// UnmarshalJSON tolerates a null description.
func (t *Task) UnmarshalJSON(data []byte) error {
	type plain Task
	var aux struct {
		plain
		Description *string `json:"description"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*t = Task(aux.plain)
	if aux.Description != nil {
		t.Description = *aux.Description
	}
	return nil
}

// NewTask is the payload for creating a task.
type NewTask struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	UserID      string `json:"user_id"`
}

// TaskUpdate is a partial update. Nil fields are left unchanged.
type TaskUpdate struct {
	Title            *string   `json:"title,omitempty"`
	Description      *string   `json:"description,omitempty"`
	Priority         *Priority `json:"priority,omitempty"`
	Category         *Category `json:"category,omitempty"`
	EstimatedMinutes *int      `json:"estimated_time_minutes,omitempty"`
	Subtasks         *string   `json:"subtasks,omitempty"`
}

// IsEmpty reports whether the update changes nothing.
func (u TaskUpdate) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.Priority == nil &&
		u.Category == nil && u.EstimatedMinutes == nil && u.Subtasks == nil
}

// ProviderConfig is the AI provider configuration sent to the backend.
type ProviderConfig struct {
	ProviderURL string `json:"provider_url"`
	APIToken    string `json:"api_token"`
	ModelName   string `json:"model_name"`
}

// ProviderStatus is the AI provider configuration reported by the backend.
type ProviderStatus struct {
	ProviderURL   string `json:"provider_url"`
	Model         string `json:"model"`
	HasValidToken bool   `json:"has_valid_token"`
}

// HealthStatus is the backend's health report.
type HealthStatus struct {
	Status  string `json:"status"`
	Model   string `json:"model,omitempty"`
	Message string `json:"message,omitempty"`
}

// Healthy reports whether the backend considers itself healthy.
func (h HealthStatus) Healthy() bool {
	return h.Status == "healthy"
}

// Timestamp is a point in time as sent by the backend. The backend omits
// the zone on naive datetimes; those are read as UTC.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// UnmarshalJSON accepts RFC 3339 and zone-less ISO 8601 timestamps.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*ts = Timestamp{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	if s == "" {
		*ts = Timestamp{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			ts.Time = t
			return nil
		}
	}
	return fmt.Errorf("timestamp: unrecognised format %q", s)
}

// MarshalJSON writes the timestamp in RFC 3339, or null when unset.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(ts.Time.Format(time.RFC3339Nano))
}
