package template

import (
	"fmt"
	"strings"
	"sync"

	"github.com/aymerick/raymond"
)

// Set holds named, pre-compiled Handlebars templates
type Set struct {
	templates map[string]*raymond.Template
	mu        sync.RWMutex
}

// NewSet creates an empty template set
func NewSet() *Set {
	return &Set{
		templates: make(map[string]*raymond.Template),
	}
}

// Add compiles source and stores it under name, replacing any previous template
func (s *Set) Add(name, source string) error {
	tmpl, err := raymond.Parse(source)
	if err != nil {
		return fmt.Errorf("failed to parse template %q: %w", name, err)
	}

	// raymond panics on a second global registration of the same helper
	tmpl.RegisterHelpers(helpers())

	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[name] = tmpl

	return nil
}

// Render executes the named template with data
func (s *Set) Render(name string, data interface{}) (string, error) {
	s.mu.RLock()
	tmpl, ok := s.templates[name]
	s.mu.RUnlock()

	if !ok {
		return "", fmt.Errorf("template %q not found", name)
	}

	result, err := tmpl.Exec(data)
	if err != nil {
		return "", fmt.Errorf("template %q execution failed: %w", name, err)
	}

	return result, nil
}

func helpers() map[string]interface{} {
	return map[string]interface{}{
		"uppercase": func(str string) string {
			return strings.ToUpper(str)
		},
		"lowercase": func(str string) string {
			return strings.ToLower(str)
		},
		"trim": func(str string) string {
			return strings.TrimSpace(str)
		},
		"default": func(value interface{}, defaultValue interface{}) interface{} {
			if value == nil || value == "" {
				return defaultValue
			}
			return value
		},
		"eq": func(a, b interface{}) bool {
			return a == b
		},
		"ne": func(a, b interface{}) bool {
			return a != b
		},
		"contains": func(str, substr string) bool {
			return strings.Contains(str, substr)
		},
	}
}
