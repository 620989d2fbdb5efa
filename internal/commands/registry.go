package commands

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry holds registered commands.
type Registry struct {
	mu   sync.RWMutex
	cmds map[string]Command // name and aliases map to command
}

// NewRegistry creates a new command registry.
func NewRegistry() *Registry {
	return &Registry{
		cmds: make(map[string]Command),
	}
}

// Register adds a command to the registry.
// Returns an error if the name is empty or the name or any alias is
// already registered.
func (r *Registry) Register(c Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := append([]string{c.Name()}, c.Aliases()...)
	for i, key := range keys {
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" {
			return fmt.Errorf("command name must not be empty")
		}
		if _, exists := r.cmds[key]; exists {
			if i == 0 {
				return fmt.Errorf("command already registered: %s", key)
			}
			return fmt.Errorf("command alias already registered: %s", key)
		}
		keys[i] = key
	}

	for _, key := range keys {
		r.cmds[key] = c
	}
	return nil
}

// Find looks up a command by name or alias, ignoring case.
func (r *Registry) Find(name string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.cmds[strings.ToLower(name)]
	return cmd, ok
}

// All returns all unique commands sorted by name.
func (r *Registry) All() []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]Command)
	for _, cmd := range r.cmds {
		seen[cmd.Name()] = cmd
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)

	result := make([]Command, len(names))
	for i, name := range names {
		result[i] = seen[name]
	}
	return result
}

// DefaultRegistry is the global command registry.
var DefaultRegistry = NewRegistry()

// Register adds a command to the default registry.
func Register(c Command) {
	if err := DefaultRegistry.Register(c); err != nil {
		panic(err)
	}
}
