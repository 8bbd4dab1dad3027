package tagger

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"taggerd/internal/config"
	"taggerd/internal/logging"
)

const (
	modelFileName = "model.onnx"
	tagsFileName  = "selected_tags.csv"
)

// Registry owns the set of available interrogators. It is constructed once
// at bootstrap and passed by reference to every consumer; there is no
// ambient global model table.
type Registry struct {
	cfg    *config.Config
	logger *slog.Logger

	mu     sync.RWMutex
	models map[string]Interrogator
}

// NewRegistry builds an empty registry bound to the configured model
// directory. Call Refresh to discover models.
func NewRegistry(cfg *config.Config, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Registry{
		cfg:    cfg,
		logger: logger.With(logging.String("component", "registry")),
		models: make(map[string]Interrogator),
	}
}

// Register adds or replaces an interrogator under its own name.
func (r *Registry) Register(in Interrogator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.models[in.Name()] = in
}

// Get returns the interrogator registered under name.
func (r *Registry) Get(name string) (Interrogator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.models) == 0 {
		return nil, ErrNoModels
	}
	in, ok := r.models[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, name)
	}
	return in, nil
}

// Names returns the sorted identifiers of all registered interrogators.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len reports how many interrogators are registered.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.models)
}

// Refresh rescans the model directory and registers any model not yet
// known. Each subdirectory holding model.onnx and selected_tags.csv becomes
// an interrogator named after the subdirectory. Existing instances are kept
// so loaded sessions survive a refresh. Returns the refreshed name list.
func (r *Registry) Refresh() ([]string, error) {
	dir := ""
	if r.cfg != nil {
		dir = r.cfg.Paths.ModelDir
	}
	if dir != "" {
		entries, err := os.ReadDir(dir)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("scan model dir: %w", err)
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			name := entry.Name()
			modelPath := filepath.Join(dir, name, modelFileName)
			tagsPath := filepath.Join(dir, name, tagsFileName)
			if !fileExists(modelPath) || !fileExists(tagsPath) {
				continue
			}

			r.mu.Lock()
			_, known := r.models[name]
			r.mu.Unlock()
			if known {
				continue
			}

			library := ""
			if r.cfg != nil {
				library = r.cfg.Tagger.ONNXLibrary
			}
			model, err := NewWDInterrogator(name, modelPath, tagsPath, library)
			if err != nil {
				r.logger.Warn("skipping model",
					logging.String("model", name), logging.Error(err))
				continue
			}
			r.Register(model)
			r.logger.Info("registered model", logging.String("model", name))
		}
	}
	return r.Names(), nil
}

// UnloadAll asks every interrogator to release its resources and returns
// how many reported success. Failures are skipped, never an error.
func (r *Registry) UnloadAll() int {
	r.mu.RLock()
	models := make([]Interrogator, 0, len(r.models))
	for _, in := range r.models {
		models = append(models, in)
	}
	r.mu.RUnlock()

	unloaded := 0
	for _, in := range models {
		if in.Unload() {
			unloaded++
		}
	}
	return unloaded
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
