package nn

import (
	"errors"
	"fmt"
	"maps"
	"sort"
	"strings"
	"sync"

	"github.com/born-ml/saliency/internal/autodiff"
	"github.com/born-ml/saliency/internal/autodiff/ops"
	"github.com/born-ml/saliency/internal/tensor"
)

var (
	// ErrFrozen is returned when mutating a frozen model.
	ErrFrozen = errors.New("nn: model is frozen")

	// ErrAlreadyOverridden is returned when an op kind already has a
	// gradient override on the model.
	ErrAlreadyOverridden = errors.New("nn: gradient already overridden")

	// ErrLayerIndex is returned for a layer index outside the model.
	ErrLayerIndex = errors.New("nn: layer index out of range")
)

// Model is an ordered list of layers with a gradient override map.
//
// Each layer's output becomes the next layer's input. When the input's
// backend implements GradientScope, the model's overrides are in scope for
// the whole forward pass, so every op of an overridden kind is bound to the
// named gradient rule. The forward values never change.
//
// Example:
//
//	model := nn.NewModel(
//	    nn.NewLinear(784, 128),
//	    nn.NewReLU(),
//	    nn.NewLinear(128, 10),
//	)
//	restore, err := model.OverrideGradient(ops.KindReLU, "GuidedReLU_1")
//	defer restore()
//
// A Model may be read by concurrent forward passes. Mutating methods take a
// write lock.
type Model struct {
	mu        sync.RWMutex
	layers    []Module
	overrides map[ops.Kind]string
	frozen    bool
}

// NewModel creates a model from layers.
func NewModel(layers ...Module) *Model {
	return &Model{
		layers:    layers,
		overrides: make(map[ops.Kind]string),
	}
}

// Forward applies all layers in sequence.
func (m *Model) Forward(input *tensor.Tensor) *tensor.Tensor {
	m.mu.RLock()
	layers := m.layers
	overrides := maps.Clone(m.overrides)
	m.mu.RUnlock()

	if scope, ok := input.Backend().(GradientScope); ok && len(overrides) > 0 {
		restore := scope.OverrideGradients(overrides)
		defer restore()
	}

	output := input
	for _, layer := range layers {
		output = layer.Forward(output)
	}
	return output
}

// Parameters returns the weights of all layers in order.
func (m *Model) Parameters() []*Parameter {
	var params []*Parameter
	for _, layer := range m.Layers() {
		params = append(params, layer.Parameters()...)
	}
	return params
}

// Add appends a layer.
func (m *Model) Add(layer Module) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.frozen {
		return ErrFrozen
	}
	m.layers = append(m.layers, layer)
	return nil
}

// Len returns the number of layers.
func (m *Model) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.layers)
}

// Layers returns a copy of the layer list.
func (m *Model) Layers() []Module {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Module(nil), m.layers...)
}

// Layer returns the layer at index. Negative indices count from the end.
func (m *Model) Layer(index int) (Module, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i, err := resolveIndex(index, len(m.layers))
	if err != nil {
		return nil, err
	}
	return m.layers[i], nil
}

// Truncate returns a model made of the layers up to and including index.
// Negative indices count from the end, so -1 keeps every layer.
//
// The returned model shares layers (and weights) with m but has its own copy
// of the override map, so overriding it leaves m untouched. It inherits the
// frozen state.
func (m *Model) Truncate(index int) (*Model, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i, err := resolveIndex(index, len(m.layers))
	if err != nil {
		return nil, err
	}

	end := i + 1
	return &Model{
		layers:    m.layers[:end:end],
		overrides: maps.Clone(m.overrides),
		frozen:    m.frozen,
	}, nil
}

// OverrideGradient binds every op of kind recorded during Forward to the
// gradient rule registered under name. It returns a function that restores
// the previous rule.
//
// Errors:
//   - ErrFrozen if the model is frozen
//   - ErrAlreadyOverridden if kind already has an override
//   - autodiff.ErrGradientNotFound if name is not registered
//
// restore is idempotent and works on a frozen model.
func (m *Model) OverrideGradient(kind ops.Kind, name string) (restore func(), err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.frozen {
		return nil, ErrFrozen
	}
	if current, ok := m.overrides[kind]; ok {
		return nil, fmt.Errorf("%w: %s is bound to %q", ErrAlreadyOverridden, kind, current)
	}
	if _, ok := autodiff.LookupGradient(name); !ok {
		return nil, fmt.Errorf("nn: override %s with %q: %w", kind, name, autodiff.ErrGradientNotFound)
	}

	if m.overrides == nil {
		m.overrides = make(map[ops.Kind]string)
	}
	m.overrides[kind] = name

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if m.overrides[kind] == name {
				delete(m.overrides, kind)
			}
		})
	}, nil
}

// GradientOverride returns the rule name bound to kind, if any.
func (m *Model) GradientOverride(kind ops.Kind) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	name, ok := m.overrides[kind]
	return name, ok
}

// CountKind returns the number of activation layers of kind, including those
// inside nested models.
func (m *Model) CountKind(kind ops.Kind) int {
	count := 0
	for _, layer := range m.Layers() {
		switch l := layer.(type) {
		case *Model:
			count += l.CountKind(kind)
		case Activation:
			if l.ActivationKind() == kind {
				count++
			}
		}
	}
	return count
}

// Freeze makes the model reject further mutation.
func (m *Model) Freeze() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frozen = true
}

// Frozen reports whether the model is frozen.
func (m *Model) Frozen() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.frozen
}

// StateDict returns a map of parameter names to raw tensors.
//
// Parameters are prefixed with their layer index (e.g., "0.weight",
// "0.bias", "3.weight") to avoid name collisions. The tensors are the
// model's own storage, not copies.
func (m *Model) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)
	for i, layer := range m.Layers() {
		for _, p := range layer.Parameters() {
			stateDict[fmt.Sprintf("%d.%s", i, p.Name())] = p.Raw()
		}
	}
	return stateDict
}

// LoadStateDict copies parameters from a state dictionary keyed like
// StateDict. Missing and unexpected keys are errors.
func (m *Model) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	if m.Frozen() {
		return ErrFrozen
	}

	used := make(map[string]bool, len(stateDict))
	for i, layer := range m.Layers() {
		for _, p := range layer.Parameters() {
			key := fmt.Sprintf("%d.%s", i, p.Name())
			raw, ok := stateDict[key]
			if !ok {
				return fmt.Errorf("nn: missing %s in state dict", key)
			}
			if err := p.Load(raw); err != nil {
				return fmt.Errorf("nn: failed to load layer %d: %w", i, err)
			}
			used[key] = true
		}
	}

	var unexpected []string
	for key := range stateDict {
		if !used[key] {
			unexpected = append(unexpected, key)
		}
	}
	if len(unexpected) > 0 {
		sort.Strings(unexpected)
		return fmt.Errorf("nn: unexpected keys in state dict: %s", strings.Join(unexpected, ", "))
	}

	return nil
}

// String returns one line per layer.
func (m *Model) String() string {
	var sb strings.Builder
	sb.WriteString("Model(\n")
	for i, layer := range m.Layers() {
		fmt.Fprintf(&sb, "  (%d): %v\n", i, layer)
	}
	sb.WriteString(")")
	return sb.String()
}

// resolveIndex maps a possibly negative index onto [0, n).
func resolveIndex(index, n int) (int, error) {
	i := index
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return 0, fmt.Errorf("%w: %d for %d layers", ErrLayerIndex, index, n)
	}
	return i, nil
}
