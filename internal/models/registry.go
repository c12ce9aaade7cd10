package models

import (
	"errors"
	"time"
)

const DefaultOwner = "openai-api-blueprint"

var ErrModelNotFound = errors.New("model not found")

// Model matches OpenAI's model object
type Model struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	OwnedBy string `json:"owned_by"`
}

// ModelList matches OpenAI's list envelope
type ModelList struct {
	Object string  `json:"object"`
	Data   []Model `json:"data"`
}

// Registry is a fixed catalog populated at startup. It has no mutation API so
// concurrent readers need no locking.
type Registry struct {
	models []Model
	index  map[string]int
}

func NewRegistry(models ...Model) *Registry {
	r := &Registry{
		models: make([]Model, 0, len(models)),
		index:  make(map[string]int, len(models)),
	}
	for _, m := range models {
		if _, dup := r.index[m.ID]; dup {
			continue
		}
		if m.Object == "" {
			m.Object = "model"
		}
		if m.OwnedBy == "" {
			m.OwnedBy = DefaultOwner
		}
		r.index[m.ID] = len(r.models)
		r.models = append(r.models, m)
	}
	return r
}

// DefaultRegistry returns the blueprint catalog with creation times relative to now
func DefaultRegistry(now time.Time) *Registry {
	ts := now.Unix()
	return NewRegistry(
		Model{ID: "blueprint-standard", Created: ts - 10000},
		Model{ID: "blueprint-advanced", Created: ts - 20000},
		Model{ID: "blueprint-experimental", Created: ts - 5000},
	)
}

// RegistryFromIDs builds a catalog from configured ids, all created at now
func RegistryFromIDs(ids []string, now time.Time) *Registry {
	models := make([]Model, 0, len(ids))
	for _, id := range ids {
		models = append(models, Model{ID: id, Created: now.Unix()})
	}
	return NewRegistry(models...)
}

// List returns the catalog in insertion order
func (r *Registry) List() ModelList {
	data := make([]Model, len(r.models))
	copy(data, r.models)
	return ModelList{Object: "list", Data: data}
}

func (r *Registry) Get(id string) (Model, error) {
	i, ok := r.index[id]
	if !ok {
		return Model{}, ErrModelNotFound
	}
	return r.models[i], nil
}
