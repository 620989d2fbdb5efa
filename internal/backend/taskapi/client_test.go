package taskapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"aitask/internal/config"
	"aitask/internal/service"
)

const sampleTask = `{
	"id": 12,
	"title": "Write docs",
	"description": null,
	"user_id": "alice",
	"priority": "High",
	"category": "Work",
	"estimated_time_minutes": 60,
	"subtasks": "['Research', 'Draft']",
	"ai_processed": true,
	"created_at": "2024-05-01T09:30:00.123456",
	"updated_at": "2024-05-01T09:30:00.123456"
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewWithHTTPClient(srv.URL, srv.Client(), time.Second)
	if err != nil {
		t.Fatalf("NewWithHTTPClient: %v", err)
	}
	return c
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	io.WriteString(w, body)
}

func TestCreateTask(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/tasks/" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get(RequestIDHeader) == "" {
			t.Error("expected a request id header")
		}
		var got service.NewTask
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		want := service.NewTask{Title: "Write docs", Description: "", UserID: "alice"}
		if got != want {
			t.Errorf("expected body %+v, got %+v", want, got)
		}
		writeJSON(w, http.StatusOK, sampleTask)
	})

	task, err := c.CreateTask(context.Background(), service.NewTask{Title: "Write docs", UserID: "alice"})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	if task.ID != 12 || task.Title != "Write docs" || task.UserID != "alice" {
		t.Errorf("unexpected task %+v", task)
	}
	if task.Description != "" {
		t.Errorf("expected null description to decode as empty, got %q", task.Description)
	}
	if task.Priority != service.PriorityHigh || task.Category != service.CategoryWork {
		t.Errorf("unexpected priority/category %q/%q", task.Priority, task.Category)
	}
	if task.EstimatedMinutes == nil || *task.EstimatedMinutes != 60 {
		t.Errorf("expected 60 minutes, got %v", task.EstimatedMinutes)
	}
	if got, want := task.SubtaskList(), []string{"Research", "Draft"}; !reflect.DeepEqual(got, want) {
		t.Errorf("expected subtasks %v, got %v", want, got)
	}
	wantCreated := time.Date(2024, 5, 1, 9, 30, 0, 123456000, time.UTC)
	if !task.CreatedAt.Equal(wantCreated) {
		t.Errorf("expected created_at %v, got %v", wantCreated, task.CreatedAt.Time)
	}
}

func TestListUserTasks_EscapesUserID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.EscapedPath(); got != "/api/users/a%20b%2Fc/tasks" {
			t.Errorf("unexpected path %s", got)
		}
		writeJSON(w, http.StatusOK, "["+sampleTask+`,{"id":13,"title":"Run","user_id":"a b/c","subtasks":["x"]}]`)
	})

	tasks, err := c.ListUserTasks(context.Background(), "a b/c")
	if err != nil {
		t.Fatalf("ListUserTasks: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
	if got := tasks[1].SubtaskList(); !reflect.DeepEqual(got, []string{"x"}) {
		t.Errorf("expected [x], got %v", got)
	}
	if tasks[1].EstimatedMinutes != nil {
		t.Errorf("expected unset minutes, got %d", *tasks[1].EstimatedMinutes)
	}
}

func TestListUserTasks_Empty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `[]`)
	})

	tasks, err := c.ListUserTasks(context.Background(), "alice")
	if err != nil {
		t.Fatalf("ListUserTasks: %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("expected no tasks, got %d", len(tasks))
	}
}

func TestUpdateTask_SendsOnlySetFields(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/api/tasks/12" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		want := map[string]any{"priority": "Low", "subtasks": `["a","b"]`}
		if !reflect.DeepEqual(body, want) {
			t.Errorf("expected body %v, got %v", want, body)
		}
		writeJSON(w, http.StatusOK, sampleTask)
	})

	priority := service.PriorityLow
	subs := `["a","b"]`
	if _, err := c.UpdateTask(context.Background(), 12, service.TaskUpdate{Priority: &priority, Subtasks: &subs}); err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
}

func TestDeleteTask(t *testing.T) {
	var called bool
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = r.Method == http.MethodDelete && r.URL.Path == "/api/tasks/7"
		writeJSON(w, http.StatusOK, `{"message":"Task deleted successfully"}`)
	})

	if err := c.DeleteTask(context.Background(), 7); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	if !called {
		t.Error("expected DELETE /api/tasks/7")
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		sentinel error
		wantMsg  string
	}{
		{"not found detail", 404, `{"detail":"Task not found"}`, service.ErrNotFound, "not found: Task not found"},
		{"unauthorized", 401, `{"detail":"Not authenticated"}`, service.ErrUnauthorized, "unauthorized: Not authenticated"},
		{"forbidden", 403, ``, service.ErrUnauthorized, "unauthorized: forbidden"},
		{"proxy error", 500, `{"error":"connection refused"}`, nil, "HTTP 500: connection refused"},
		{"status message", 400, `{"status":"error","message":"Invalid API token"}`, nil, "HTTP 400: Invalid API token"},
		{"validation detail", 422, `{"detail":[{"msg":"field required"}]}`, nil, `HTTP 422: [{"msg":"field required"}]`},
		{"plain text", 502, `Bad Gateway`, nil, "HTTP 502: Bad Gateway"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})

			_, err := c.GetTask(context.Background(), 1)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.sentinel != nil && !errors.Is(err, tt.sentinel) {
				t.Errorf("expected %v, got %v", tt.sentinel, err)
			}
			if err.Error() != tt.wantMsg {
				t.Errorf("expected %q, got %q", tt.wantMsg, err.Error())
			}
		})
	}
}

func TestInvalidTaskRecord(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"wrong id type", `{"id":"x","title":"t","user_id":"u"}`, "id"},
		{"missing title", `{"id":1,"user_id":"u"}`, "title"},
		{"not an object", `[1,2]`, "(root)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, tt.body)
			})

			_, err := c.GetTask(context.Background(), 1)
			if !errors.Is(err, service.ErrInvalidResponse) {
				t.Fatalf("expected invalid response error, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error to mention %q, got %q", tt.want, err.Error())
			}
		})
	}
}

func TestProviderStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/config" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		writeJSON(w, http.StatusOK, `{"status":"success","provider_url":"https://api.example.com/v1","model":"gpt-4o","has_valid_token":true}`)
	})

	got, err := c.ProviderStatus(context.Background())
	if err != nil {
		t.Fatalf("ProviderStatus: %v", err)
	}
	want := service.ProviderStatus{ProviderURL: "https://api.example.com/v1", Model: "gpt-4o", HasValidToken: true}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestProviderStatus_ErrorStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"status":"error"}`)
	})

	_, err := c.ProviderStatus(context.Background())
	if err == nil || err.Error() != "could not retrieve configuration" {
		t.Errorf("expected fallback message, got %v", err)
	}
}

func TestUpdateProvider(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/update-config" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var got service.ProviderConfig
		json.NewDecoder(r.Body).Decode(&got)
		if got.ModelName != "gpt-4o" || got.APIToken != "sk-1" || got.ProviderURL != "https://p" {
			t.Errorf("unexpected body %+v", got)
		}
		writeJSON(w, http.StatusOK, `{"status":"success","message":"Configuration updated successfully"}`)
	})

	msg, err := c.UpdateProvider(context.Background(), service.ProviderConfig{
		ProviderURL: "https://p", APIToken: "sk-1", ModelName: "gpt-4o",
	})
	if err != nil {
		t.Fatalf("UpdateProvider: %v", err)
	}
	if msg != "Configuration updated successfully" {
		t.Errorf("unexpected message %q", msg)
	}
}

func TestHealth_WithProviderConfig(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("provider_url") != "https://p" || q.Get("api_token") != "sk-1" || q.Get("model_name") != "m" {
			t.Errorf("unexpected query %v", q)
		}
		writeJSON(w, http.StatusOK, `{"status":"healthy","model":"m"}`)
	})

	status, err := c.Health(context.Background(), &service.ProviderConfig{ProviderURL: "https://p", APIToken: "sk-1", ModelName: "m"})
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if !status.Healthy() || status.Model != "m" {
		t.Errorf("unexpected status %+v", status)
	}
}

func TestHealth_NoQueryWithoutConfig(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.RawQuery != "" {
			t.Errorf("expected no query, got %q", r.URL.RawQuery)
		}
		writeJSON(w, http.StatusOK, `{"status":"unhealthy","message":"Invalid API token"}`)
	})

	status, err := c.Health(context.Background(), nil)
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if status.Healthy() || status.Message != "Invalid API token" {
		t.Errorf("unexpected status %+v", status)
	}
}

func TestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c, err := NewWithHTTPClient(srv.URL, srv.Client(), 20*time.Millisecond)
	if err != nil {
		t.Fatalf("NewWithHTTPClient: %v", err)
	}

	err = c.DeleteTask(context.Background(), 1)
	if err == nil || err.Error() != "request timed out" {
		t.Errorf("expected timeout error, got %v", err)
	}
}

func TestNew_SendsStoredToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("expected bearer token, got %q", got)
		}
		writeJSON(w, http.StatusOK, `{"status":"healthy"}`)
	}))
	defer srv.Close()

	cfg := &config.Config{Dir: t.TempDir(), BaseURL: srv.URL}
	if err := cfg.SaveToken(&oauth2.Token{AccessToken: "secret", TokenType: "Bearer"}); err != nil {
		t.Fatalf("SaveToken: %v", err)
	}

	c, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.timeout != APITimeout {
		t.Errorf("expected default timeout, got %v", c.timeout)
	}
	if _, err := c.Health(context.Background(), nil); err != nil {
		t.Fatalf("Health: %v", err)
	}
}

func TestNewWithHTTPClient_InvalidURL(t *testing.T) {
	for _, u := range []string{"", "localhost:5000", "ftp://example.com", "http://"} {
		if _, err := NewWithHTTPClient(u, nil, 0); err == nil {
			t.Errorf("expected error for %q", u)
		}
	}
}
