package registry

import (
	"fmt"
	"log/slog"
)

// RegisteredStep holds the compiled Go parts of a step type.
type RegisteredStep struct {
	// NewInput returns a pointer to a fresh input struct, or nil when the step
	// takes no arguments.
	NewInput    func() any
	Fn          StepFunc
	Description string
}

// RegisterStep registers a Go function under a step type name.
func (r *Registry) RegisterStep(name string, handler *RegisteredStep) {
	if _, exists := r.StepRegistry[name]; exists {
		panic(fmt.Sprintf("step handler with name '%s' already registered", name))
	}
	if handler.Fn == nil {
		panic(fmt.Sprintf("step handler '%s' has no function", name))
	}
	slog.Debug("Registering step handler.", "name", name)
	r.StepRegistry[name] = handler
}

// Input decodes a step's configuration into a fresh input value.
func (s *RegisteredStep) Input(decode func(target any) error) (any, error) {
	if s.NewInput == nil {
		return nil, decode(&struct{}{})
	}
	input := s.NewInput()
	if err := decode(input); err != nil {
		return nil, err
	}
	return input, nil
}
