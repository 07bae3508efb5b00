package config

import "context"

// Loader is the interface for a format-specific task file loader.
type Loader interface {
	// Load reads the task file(s) found at the given paths and translates
	// them into the format-agnostic model.
	Load(ctx context.Context, paths ...string) (*Model, error)
}

// Decoder binds a step block to the Go input struct of its step type.
type Decoder interface {
	// Decode populates target, which must be a non-nil pointer to a struct
	// carrying format tags, applying defaults and validations.
	Decode(target any) error
}
