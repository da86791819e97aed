package internal

import "github.com/starford/berkano/internal/blocks"

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config     *Config
	modelTypes *blocks.ModelTypeRegistry
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithModelTypes installs a pre-populated model-type registry, e.g. one
// carrying generated schema-specific wrappers. When omitted, the engine
// materializes generic elements only.
func WithModelTypes(reg *blocks.ModelTypeRegistry) Option {
	return func(a *application) {
		a.modelTypes = reg
	}
}
