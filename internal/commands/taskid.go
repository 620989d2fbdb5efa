package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrTaskIDRequired indicates no task ID was provided.
var ErrTaskIDRequired = errors.New("task id required")

// ParseTaskID parses a task ID as printed on a task card: "12" or "#12".
func ParseTaskID(arg string) (int, error) {
	s := strings.TrimPrefix(strings.TrimSpace(arg), "#")
	if !isAllDigits(s) {
		return 0, fmt.Errorf("invalid task id: %s", arg)
	}
	id, err := strconv.Atoi(s)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid task id: %s", arg)
	}
	return id, nil
}

// ParseTaskIDs parses every argument as a task ID. All arguments are checked
// before any is used, so a typo never causes a partial operation.
func ParseTaskIDs(args []string) ([]int, error) {
	if len(args) == 0 {
		return nil, ErrTaskIDRequired
	}
	ids := make([]int, 0, len(args))
	for _, arg := range args {
		id, err := ParseTaskID(arg)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// parseSingleTaskID parses exactly one task ID argument.
func parseSingleTaskID(args []string) (int, error) {
	switch len(args) {
	case 0:
		return 0, ErrTaskIDRequired
	case 1:
		return ParseTaskID(args[0])
	default:
		return 0, fmt.Errorf("too many arguments: %s", strings.Join(args[1:], " "))
	}
}

// isAllDigits returns true if s consists only of ASCII digits and is non-empty.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
