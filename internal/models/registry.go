// internal/models/registry.go
package models

import (
	"context"
	"net/http"
	"sync"

	"github.com/openai/openai-go"

	"arena/internal/config"
)

// Registry holds the models the backend serves. Models requested by name
// that were not configured are added on first use.
type Registry struct {
	client openai.Client

	mu     sync.RWMutex
	models map[string]Model
	order  []string // Preserve order for consistent display
}

// NewRegistry creates a registry from config
func NewRegistry(cfg *config.Config, httpClient *http.Client) *Registry {
	client := NewClient(cfg.Server.OllamaURL, cfg.Server.APIKey, httpClient)
	return NewRegistryWithClient(client, cfg.Models)
}

// NewRegistryWithClient creates a registry with one model per name
func NewRegistryWithClient(client openai.Client, names []string) *Registry {
	r := &Registry{
		client: client,
		models: make(map[string]Model),
	}
	for _, name := range names {
		r.Resolve(name)
	}
	return r
}

// Get returns a model by ID
func (r *Registry) Get(id string) Model {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.models[id]
}

// Resolve returns the model for id, creating an Ollama model if needed
func (r *Registry) Resolve(id string) Model {
	if m := r.Get(id); m != nil {
		return m
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.models[id]; ok {
		return m
	}
	m := NewOllama(r.client, ModelInfo{ID: id, Name: id, Color: ColorFor(len(r.order))})
	r.models[id] = m
	r.order = append(r.order, id)
	return m
}

// All returns all models in order
func (r *Registry) All() []Model {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]Model, 0, len(r.order))
	for _, id := range r.order {
		if m, ok := r.models[id]; ok {
			result = append(result, m)
		}
	}
	return result
}

// Enabled returns IDs of all registered models
func (r *Registry) Enabled() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Installed lists the models present on the Ollama server
func (r *Registry) Installed(ctx context.Context) ([]string, error) {
	return ListModels(ctx, r.client)
}
