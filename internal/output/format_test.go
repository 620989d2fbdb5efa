package output

import (
	"bytes"
	"reflect"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"aitask/internal/service"
	"aitask/internal/subtasks"
	"aitask/internal/testutil"
)

func sampleTasks() []service.Task {
	minutes := 60
	return []service.Task{
		{
			ID:               12,
			Title:            "Write docs",
			Description:      "Write the docs",
			UserID:           "alice",
			Priority:         service.PriorityHigh,
			Category:         service.CategoryWork,
			EstimatedMinutes: &minutes,
			Subtasks:         subtasks.FromText("['Research', 'Draft']"),
			AIProcessed:      true,
			CreatedAt:        service.Timestamp{Time: time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)},
		},
		{
			ID:       13,
			Title:    "Line one\nline two",
			UserID:   "alice",
			Priority: service.PriorityLow,
			Category: service.CategoryOther,
		},
	}
}

func TestFormatTaskCards(t *testing.T) {
	var buf bytes.Buffer
	FormatTaskCards(&buf, sampleTasks())
	testutil.Golden(t, "task_cards", buf.Bytes())
}

func TestWriteTasks_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTasks(&buf, FormatJSON, sampleTasks()); err != nil {
		t.Fatalf("WriteTasks: %v", err)
	}
	testutil.Golden(t, "tasks_json", buf.Bytes())
}

func TestWriteTask_YAML(t *testing.T) {
	task := sampleTasks()[0]

	var buf bytes.Buffer
	if err := WriteTask(&buf, FormatYAML, task); err != nil {
		t.Fatalf("WriteTask: %v", err)
	}

	var got TaskView
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not valid YAML: %v\n%s", err, buf.String())
	}
	if !reflect.DeepEqual(got, NewTaskView(task)) {
		t.Errorf("unexpected YAML content:\n%s", buf.String())
	}
	if !reflect.DeepEqual(got.Subtasks, []string{"Research", "Draft"}) {
		t.Errorf("expected decoded subtasks, got %v", got.Subtasks)
	}
}

func TestFormatTaskCard_NoSubtasksBlockWhenEmpty(t *testing.T) {
	task := sampleTasks()[0]
	task.Subtasks = subtasks.FromText("not a list")

	var buf bytes.Buffer
	FormatTaskCard(&buf, task)
	if bytes.Contains(buf.Bytes(), []byte("Subtasks:")) {
		t.Errorf("expected no subtasks block, got:\n%s", buf.String())
	}
}

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Buy milk", "Buy milk"},
		{"", "(untitled)"},
		{"   ", "(untitled)"},
		{"a\nb", "a b"},
		{"a\r\nb", "a b"},
		{"\n", "(untitled)"},
	}
	for _, tt := range tests {
		if got := normalizeTitle(tt.in); got != tt.want {
			t.Errorf("normalizeTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatText, "text": FormatText, "JSON": FormatJSON, " yaml ": FormatYAML} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseFormat("xml"); err == nil || err.Error() != "invalid format: xml (want text, json or yaml)" {
		t.Errorf("unexpected error %v", err)
	}
}

func TestFormatProviderStatus(t *testing.T) {
	var buf bytes.Buffer
	FormatProviderStatus(&buf, service.ProviderStatus{ProviderURL: "https://api.example.com/v1", Model: "gpt-4o"})
	want := "Provider URL: https://api.example.com/v1\nModel: gpt-4o\nAPI token: invalid or not set\n"
	if buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
}

func TestFormatHealth(t *testing.T) {
	var buf bytes.Buffer
	FormatHealth(&buf, service.HealthStatus{Status: "unhealthy", Message: "Invalid API token"})
	want := "Status: unhealthy\nMessage: Invalid API token\n"
	if buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
}
