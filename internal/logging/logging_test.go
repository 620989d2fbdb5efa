package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNew_DebugLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, true)
	logger.Debug("request", "method", "GET")

	out := buf.String()
	if !strings.Contains(out, "request") || !strings.Contains(out, "method=GET") {
		t.Errorf("expected debug line, got %q", out)
	}
	if !strings.Contains(out, Prefix) {
		t.Errorf("expected prefix %q, got %q", Prefix, out)
	}
}

func TestNew_QuietByDefault(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, false)
	logger.Debug("request")
	logger.Info("hello")

	if buf.Len() != 0 {
		t.Errorf("expected no output below warn level, got %q", buf.String())
	}

	logger.Warn("careful")
	if !strings.Contains(buf.String(), "careful") {
		t.Errorf("expected warning, got %q", buf.String())
	}
}

func TestWithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, true)
	ctx := WithLogger(context.Background(), logger)

	if got := log.FromContext(ctx); got != logger {
		t.Error("expected the attached logger back from the context")
	}
}
