package autodiff

import (
	"fmt"
	"maps"

	"github.com/born-ml/saliency/internal/autodiff/ops"
	"github.com/born-ml/saliency/internal/tensor"
)

// tapeEntry is a recorded operation together with the name of the gradient
// rule that was in scope when it ran ("" for the operation's own Backward).
type tapeEntry struct {
	op       ops.Operation
	gradient string
}

// GradientTape records operations during the forward pass and computes
// gradients during the backward pass using reverse-mode automatic differentiation.
//
// The tape also carries a gradient override map. Operations recorded while an
// override for their kind is in scope are bound to the named rule, in the
// same way a graph-level gradient override map rebinds operators.
//
// Usage:
//
//	tape := NewGradientTape()
//	tape.StartRecording()
//	// ... perform operations ...
//	gradients, err := tape.Backward(output, outputGrad, backend)
type GradientTape struct {
	entries   []tapeEntry
	recording bool
	overrides map[ops.Kind]string
}

// NewGradientTape creates a new gradient tape.
func NewGradientTape() *GradientTape {
	return &GradientTape{
		entries:   make([]tapeEntry, 0, 64),
		recording: false,
	}
}

// StartRecording enables operation recording.
func (t *GradientTape) StartRecording() {
	t.recording = true
}

// StopRecording disables operation recording.
func (t *GradientTape) StopRecording() {
	t.recording = false
}

// IsRecording returns true if the tape is currently recording operations.
func (t *GradientTape) IsRecording() bool {
	return t.recording
}

// Record adds an operation to the tape.
// Only records if the tape is currently recording.
func (t *GradientTape) Record(op ops.Operation) {
	if !t.recording {
		return
	}
	t.entries = append(t.entries, tapeEntry{
		op:       op,
		gradient: t.overrides[op.Kind()],
	})
}

// OverrideGradients puts overrides in scope for subsequently recorded
// operations and returns a function that restores the previous scope.
// Nested scopes merge, with the inner scope winning.
func (t *GradientTape) OverrideGradients(overrides map[ops.Kind]string) (restore func()) {
	prev := t.overrides
	merged := make(map[ops.Kind]string, len(prev)+len(overrides))
	maps.Copy(merged, prev)
	maps.Copy(merged, overrides)
	t.overrides = merged

	return func() {
		t.overrides = prev
	}
}

// Clear resets the tape, removing all recorded operations.
// Recording state and override scope are preserved.
func (t *GradientTape) Clear() {
	t.entries = t.entries[:0]
}

// NumOps returns the number of recorded operations.
func (t *GradientTape) NumOps() int {
	return len(t.entries)
}

// Backward computes gradients of output by walking the tape in reverse.
//
//  1. Seed output with outputGrad
//  2. Walk operations in reverse order
//  3. For each operation with an incoming gradient, compute input gradients
//     with its bound rule (override or default)
//  4. Accumulate gradients when the same tensor is used multiple times
//
// Returns a map from RawTensor to its accumulated gradient. Tensors that
// output does not depend on are absent from the map.
func (t *GradientTape) Backward(output, outputGrad *tensor.RawTensor, backend tensor.Backend) (map[*tensor.RawTensor]*tensor.RawTensor, error) {
	if !outputGrad.Shape().Equal(output.Shape()) {
		return nil, fmt.Errorf("backward: output gradient shape %v != output shape %v", outputGrad.Shape(), output.Shape())
	}

	// Stop recording during backward pass to prevent recording gradient operations
	wasRecording := t.recording
	t.recording = false
	defer func() {
		t.recording = wasRecording
	}()

	grads := map[*tensor.RawTensor]*tensor.RawTensor{output: outputGrad}

	for i := len(t.entries) - 1; i >= 0; i-- {
		entry := t.entries[i]
		outGrad, ok := grads[entry.op.Output()]
		if !ok {
			continue
		}

		inputGrads, err := t.computeInputGrads(entry, outGrad, backend)
		if err != nil {
			return nil, err
		}
		t.accumulateGrads(entry.op, inputGrads, grads, backend)
	}

	return grads, nil
}

// computeInputGrads applies the rule bound to entry.
func (t *GradientTape) computeInputGrads(entry tapeEntry, outGrad *tensor.RawTensor, backend tensor.Backend) ([]*tensor.RawTensor, error) {
	if entry.gradient == "" {
		return entry.op.Backward(outGrad, backend), nil
	}

	rule, ok := LookupGradient(entry.gradient)
	if !ok {
		return nil, fmt.Errorf("backward: %s op bound to %q: %w", entry.op.Kind(), entry.gradient, ErrGradientNotFound)
	}
	return rule(entry.op, outGrad, backend), nil
}

// accumulateGrads accumulates gradients for each input tensor.
func (t *GradientTape) accumulateGrads(
	op ops.Operation,
	inputGrads []*tensor.RawTensor,
	grads map[*tensor.RawTensor]*tensor.RawTensor,
	backend tensor.Backend,
) {
	for j, input := range op.Inputs() {
		if j >= len(inputGrads) {
			break
		}
		inputGrad := inputGrads[j]
		if inputGrad == nil {
			continue
		}
		if existing, ok := grads[input]; ok {
			grads[input] = backend.Add(existing, inputGrad)
		} else {
			grads[input] = inputGrad
		}
	}
}
