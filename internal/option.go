package internal

import "log/slog"

// Option configures Run and RunMCP.
type Option func(*application)

type application struct {
	config *Config
	logger *slog.Logger
}

// WithConfig supplies the loaded configuration. It is required.
func WithConfig(cfg *Config) Option {
	return func(a *application) { a.config = cfg }
}

// WithLogger replaces the JSON logger built from the configured level.
func WithLogger(l *slog.Logger) Option {
	return func(a *application) { a.logger = l }
}
