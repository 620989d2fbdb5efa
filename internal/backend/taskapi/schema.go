package taskapi

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"aitask/internal/service"
)

//go:embed task.schema.json
var taskSchemaJSON string

var taskSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	return jsonschema.CompileString("task.schema.json", taskSchemaJSON)
})

// decodeTask validates a single task record and decodes it.
func decodeTask(data []byte) (service.Task, error) {
	if err := validateTask(data); err != nil {
		return service.Task{}, err
	}
	var task service.Task
	if err := json.Unmarshal(data, &task); err != nil {
		return service.Task{}, fmt.Errorf("%w: %v", service.ErrInvalidResponse, err)
	}
	return task, nil
}

// decodeTasks validates and decodes a JSON array of task records.
func decodeTasks(data []byte) ([]service.Task, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: expected a list of tasks: %v", service.ErrInvalidResponse, err)
	}
	tasks := make([]service.Task, 0, len(raw))
	for i, r := range raw {
		task, err := decodeTask(r)
		if err != nil {
			return nil, fmt.Errorf("task %d: %w", i, err)
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func validateTask(data []byte) error {
	schema, err := taskSchema()
	if err != nil {
		return fmt.Errorf("compile task schema: %w", err)
	}

	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %v", service.ErrInvalidResponse, err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %s", service.ErrInvalidResponse, firstSchemaError(err))
	}
	return nil
}

// firstSchemaError reduces a validation error tree to its first leaf,
// rendered as "path: message".
func firstSchemaError(err error) string {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return err.Error()
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	path := strings.TrimPrefix(ve.InstanceLocation, "/")
	if path == "" {
		path = "(root)"
	}
	return fmt.Sprintf("%s: %s", strings.ReplaceAll(path, "/", "."), ve.Message)
}
