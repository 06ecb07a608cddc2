package autodiff

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/born-ml/saliency/internal/autodiff/ops"
	"github.com/born-ml/saliency/internal/tensor"
)

// Registry errors.
var (
	ErrGradientExists   = errors.New("gradient already registered")
	ErrGradientNotFound = errors.New("gradient not registered")
)

// GradientFunc is a replacement backward rule. It receives the recorded
// operation and the gradient of its output, and returns one gradient per
// input (nil where no gradient flows).
type GradientFunc func(op ops.Operation, outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor

// gradientRegistry is the process-wide table of named gradient rules.
// Rules are looked up during every backward pass and written only when an
// owner registers or releases a name.
type gradientRegistry struct {
	mu    sync.RWMutex
	rules map[string]GradientFunc
}

var registry = &gradientRegistry{
	rules: make(map[string]GradientFunc),
}

// RegisterGradient registers fn under name.
// Names are never shared: registering an existing name fails with ErrGradientExists.
func RegisterGradient(name string, fn GradientFunc) error {
	if name == "" {
		return errors.New("register gradient: empty name")
	}
	if fn == nil {
		return fmt.Errorf("register gradient %q: nil function", name)
	}

	registry.mu.Lock()
	defer registry.mu.Unlock()

	if _, exists := registry.rules[name]; exists {
		return fmt.Errorf("register gradient %q: %w", name, ErrGradientExists)
	}
	registry.rules[name] = fn
	return nil
}

// UnregisterGradient removes the rule registered under name.
// Returns false if no such rule exists.
func UnregisterGradient(name string) bool {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	if _, exists := registry.rules[name]; !exists {
		return false
	}
	delete(registry.rules, name)
	return true
}

// LookupGradient returns the rule registered under name.
func LookupGradient(name string) (GradientFunc, bool) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	fn, ok := registry.rules[name]
	return fn, ok
}

// RegisteredGradients returns the sorted names of all registered rules.
func RegisteredGradients() []string {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	names := make([]string, 0, len(registry.rules))
	for name := range registry.rules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
