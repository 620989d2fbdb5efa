// Package output provides formatters for CLI output.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"aitask/internal/service"
)

// Format selects how task records are written.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("invalid format: %s (want text, json or yaml)", s)
	}
}

const (
	cardIndent    = "    "
	subtaskIndent = "      - "

	// AddedLayout is how creation times are shown on a task card.
	AddedLayout = "2006-01-02 15:04"
)

// FormatTaskCard formats a single task as a multi-line card:
//
//	#12  Write docs
//	    Priority: High  Category: Work  Time: 60 min
//	    AI processed: yes
//	    Description: Write the docs
//	    Subtasks:
//	      - Research
//	    Added: 2024-05-01 09:30
func FormatTaskCard(w io.Writer, task service.Task) {
	fmt.Fprintf(w, "#%d  %s\n", task.ID, normalizeTitle(task.Title))
	fmt.Fprintf(w, "%sPriority: %s  Category: %s  Time: %s\n",
		cardIndent, orNA(string(task.Priority)), orNA(string(task.Category)), formatMinutes(task.EstimatedMinutes))

	if task.AIProcessed {
		fmt.Fprintf(w, "%sAI processed: yes\n", cardIndent)
	} else {
		fmt.Fprintf(w, "%sAI processed: no (using defaults)\n", cardIndent)
	}

	fmt.Fprintf(w, "%sDescription: %s\n", cardIndent, formatDescription(task.Description))

	if items := task.SubtaskList(); len(items) > 0 {
		fmt.Fprintf(w, "%sSubtasks:\n", cardIndent)
		for _, item := range items {
			fmt.Fprintf(w, "%s%s\n", subtaskIndent, singleLine(item))
		}
	}

	if !task.CreatedAt.IsZero() {
		fmt.Fprintf(w, "%sAdded: %s\n", cardIndent, task.CreatedAt.Format(AddedLayout))
	}
}

// FormatTaskCards formats tasks as cards separated by a blank line.
func FormatTaskCards(w io.Writer, tasks []service.Task) {
	for i, task := range tasks {
		if i > 0 {
			fmt.Fprintln(w)
		}
		FormatTaskCard(w, task)
	}
}

// TaskView is the machine-readable form of a task. Subtasks are always the
// decoded list, whatever encoding the backend used.
type TaskView struct {
	ID               int      `json:"id" yaml:"id"`
	Title            string   `json:"title" yaml:"title"`
	Description      string   `json:"description" yaml:"description"`
	UserID           string   `json:"user_id" yaml:"user_id"`
	Priority         string   `json:"priority" yaml:"priority"`
	Category         string   `json:"category" yaml:"category"`
	EstimatedMinutes *int     `json:"estimated_time_minutes" yaml:"estimated_time_minutes"`
	Subtasks         []string `json:"subtasks" yaml:"subtasks"`
	AIProcessed      bool     `json:"ai_processed" yaml:"ai_processed"`
	CreatedAt        string   `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt        string   `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// NewTaskView converts a task record for JSON or YAML output.
func NewTaskView(task service.Task) TaskView {
	return TaskView{
		ID:               task.ID,
		Title:            task.Title,
		Description:      task.Description,
		UserID:           task.UserID,
		Priority:         string(task.Priority),
		Category:         string(task.Category),
		EstimatedMinutes: task.EstimatedMinutes,
		Subtasks:         task.SubtaskList(),
		AIProcessed:      task.AIProcessed,
		CreatedAt:        formatTimestamp(task.CreatedAt),
		UpdatedAt:        formatTimestamp(task.UpdatedAt),
	}
}

// WriteTasks writes tasks in the given format. Text output is a list of cards;
// JSON and YAML output is always a list, even for a single task.
func WriteTasks(w io.Writer, format Format, tasks []service.Task) error {
	if format == FormatText || format == "" {
		FormatTaskCards(w, tasks)
		return nil
	}

	views := make([]TaskView, 0, len(tasks))
	for _, task := range tasks {
		views = append(views, NewTaskView(task))
	}
	return writeStructured(w, format, views)
}

// WriteTask writes a single task. JSON and YAML output is a single object.
func WriteTask(w io.Writer, format Format, task service.Task) error {
	if format == FormatText || format == "" {
		FormatTaskCard(w, task)
		return nil
	}
	return writeStructured(w, format, NewTaskView(task))
}

func writeStructured(w io.Writer, format Format, v any) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("invalid format: %s", format)
	}
}

// FormatProviderStatus formats the backend's AI provider configuration.
func FormatProviderStatus(w io.Writer, status service.ProviderStatus) {
	token := "invalid or not set"
	if status.HasValidToken {
		token = "valid"
	}
	fmt.Fprintf(w, "Provider URL: %s\n", orNA(status.ProviderURL))
	fmt.Fprintf(w, "Model: %s\n", orNA(status.Model))
	fmt.Fprintf(w, "API token: %s\n", token)
}

// FormatHealth formats a backend health report.
func FormatHealth(w io.Writer, status service.HealthStatus) {
	fmt.Fprintf(w, "Status: %s\n", status.Status)
	if status.Model != "" {
		fmt.Fprintf(w, "Model: %s\n", status.Model)
	}
	if status.Message != "" {
		fmt.Fprintf(w, "Message: %s\n", singleLine(status.Message))
	}
}

// normalizeTitle normalizes a task title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	title = singleLine(title)
	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}

func formatDescription(desc string) string {
	desc = strings.TrimSpace(singleLine(desc))
	if desc == "" {
		return "No description"
	}
	return desc
}

func formatMinutes(minutes *int) string {
	if minutes == nil {
		return "N/A"
	}
	return fmt.Sprintf("%d min", *minutes)
}

func formatTimestamp(ts service.Timestamp) string {
	if ts.IsZero() {
		return ""
	}
	return ts.Format(time.RFC3339)
}

func singleLine(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	return strings.ReplaceAll(s, "\n", " ")
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

// FormatClientSettings formats the client's own connection settings.
func FormatClientSettings(w io.Writer, baseURL, user string) {
	if strings.TrimSpace(user) == "" {
		user = "(not set)"
	}
	fmt.Fprintf(w, "API URL: %s\n", baseURL)
	fmt.Fprintf(w, "Default user: %s\n", user)
}
