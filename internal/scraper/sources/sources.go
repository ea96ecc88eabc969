package sources

import (
	"context"

	"github.com/KaushikeeBhatt/Hackathon-web-scrapper/internal/models"
)

// Source is one hackathon listing site. Fetchers fail independently: an
// error from one source never aborts the others.
type Source interface {
	Name() string
	FetchHackathons(ctx context.Context) ([]models.Hackathon, error)
	RateLimit() int // requests per minute
	BaseURL() string
}

// SourceConfig holds per-source configuration.
type SourceConfig struct {
	Enabled   bool `json:"enabled"`
	RateLimit int  `json:"rate_limit"`
	Pages     int  `json:"pages"`
}

// Registry manages the set of known sources and their configuration.
type Registry struct {
	sources map[string]Source
	configs map[string]SourceConfig
}

// NewRegistry creates an empty source registry.
func NewRegistry() *Registry {
	return &Registry{
		sources: make(map[string]Source),
		configs: make(map[string]SourceConfig),
	}
}

// Register adds a source with its configuration.
func (r *Registry) Register(source Source, config SourceConfig) {
	r.sources[source.Name()] = source
	r.configs[source.Name()] = config
}

// Sources returns all registered sources.
func (r *Registry) Sources() map[string]Source {
	return r.sources
}

// EnabledSources returns only the sources enabled by configuration.
func (r *Registry) EnabledSources() map[string]Source {
	enabled := make(map[string]Source)
	for name, source := range r.sources {
		if config, ok := r.configs[name]; ok && config.Enabled {
			enabled[name] = source
		}
	}
	return enabled
}

// Config returns the configuration for a source.
func (r *Registry) Config(name string) (SourceConfig, bool) {
	config, ok := r.configs[name]
	return config, ok
}
