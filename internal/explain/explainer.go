package explain

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/born-ml/saliency/internal/autodiff"
	"github.com/born-ml/saliency/internal/autodiff/ops"
	"github.com/born-ml/saliency/internal/backend/cpu"
	"github.com/born-ml/saliency/internal/nn"
	"github.com/born-ml/saliency/internal/tensor"
)

// Explainer computes Guided Backpropagation saliency maps for one model.
//
// New truncates the model at Config.OutputLayerIndex and binds every ReLU of
// the truncated model to GuidedReLUGradient, registered under a name unique to
// this explainer. The caller's model is left untouched, so several explainers
// may share it. Close restores the plain ReLU rule and unregisters the name.
//
// Explain may be called concurrently. Close waits for in-flight calls to
// finish; calls that start after Close fail with ErrClosed.
type Explainer struct {
	model    *nn.Model
	cfg      Config
	backend  tensor.Backend
	logger   *zap.Logger
	ruleName string // "" when the model has no ReLU
	restore  func()

	mu     sync.RWMutex // held for reading by Explain, for writing by Close
	closed bool
}

// New creates an Explainer for model.
//
// A nil logger disables logging. Errors are *ConfigurationError.
func New(model *nn.Model, cfg Config, logger *zap.Logger) (*Explainer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if model == nil {
		return nil, &ConfigurationError{Field: "model", Err: errors.New("nil model")}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Reduction == "" {
		cfg.Reduction = ReduceSum
	}
	if model.Frozen() {
		return nil, &ConfigurationError{Field: "model", Err: nn.ErrFrozen}
	}

	view, err := model.Truncate(cfg.OutputLayerIndex)
	if err != nil {
		return nil, &ConfigurationError{Field: "OutputLayerIndex", Err: err}
	}

	e := &Explainer{
		model:   view,
		cfg:     cfg,
		backend: cpu.New(),
		logger:  logger,
	}

	count := view.CountKind(ops.KindReLU)
	if count == 0 {
		if cfg.StrictOverride {
			return nil, &ConfigurationError{Field: "model", Err: errors.New("no ReLU layers to override")}
		}
		logger.Warn("model has no ReLU layers, saliency maps are plain gradients",
			zap.Int("layers", view.Len()))
		return e, nil
	}

	name := nextRuleName()
	if err := autodiff.RegisterGradient(name, GuidedReLUGradient); err != nil {
		return nil, &ConfigurationError{Field: "model", Err: err}
	}
	restore, err := view.OverrideGradient(ops.KindReLU, name)
	if err != nil {
		autodiff.UnregisterGradient(name)
		return nil, &ConfigurationError{Field: "model", Err: err}
	}
	e.ruleName = name
	e.restore = restore

	logger.Info("guided backpropagation enabled",
		zap.String("rule", name),
		zap.Int("relu_layers", count),
		zap.Int("layers", view.Len()),
		zap.Int("batch_size", cfg.BatchSize))

	return e, nil
}

// Model returns the truncated model the explainer differentiates.
func (e *Explainer) Model() *nn.Model {
	return e.model
}

// RuleName returns the name the guided rule is registered under, or "" if
// the model has no ReLU layers.
func (e *Explainer) RuleName() string {
	return e.ruleName
}

// Explain returns one saliency map per input.
//
// inputs has shape (N, W, H, C), or (W, H, C) for a single sample. labels
// holds (N, L) one-hot rows or (N) class indices. The result has shape
// (N, W, H).
//
// Errors are *ValidationError for malformed arguments, reported before any
// gradient is computed, and *ComputationError for failures during the
// forward or backward pass.
func (e *Explainer) Explain(inputs, labels *tensor.RawTensor) (*tensor.RawTensor, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return nil, ErrClosed
	}

	x, err := sanitizeInputs(inputs)
	if err != nil {
		return nil, err
	}
	if err := checkLabelRows(labels, x.Shape()[0]); err != nil {
		return nil, err
	}

	numClasses, err := e.numClasses(x)
	if err != nil {
		return nil, err
	}

	y, err := sanitizeLabels(labels, x.Shape()[0], numClasses)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("explaining batch",
		zap.Int("samples", x.Shape()[0]),
		zap.Int("classes", numClasses))

	grad, err := BatchGradient(e.model, x, y, BatchOptions{
		BatchSize: e.cfg.BatchSize,
		Workers:   e.cfg.Workers,
		Backend:   e.backend,
		Logger:    e.logger,
	})
	if err != nil {
		return nil, err
	}

	return reduceChannels(grad, e.cfg.Reduction), nil
}

// ExplainClasses is Explain with one class index per input.
func (e *Explainer) ExplainClasses(inputs *tensor.RawTensor, classes []int) (*tensor.RawTensor, error) {
	if len(classes) == 0 {
		return nil, validationErrorf("labels", "no classes")
	}
	data := make([]float32, len(classes))
	for i, c := range classes {
		data[i] = float32(c)
	}
	labels, err := tensor.FromSlice(data, tensor.Shape{len(classes)})
	if err != nil {
		return nil, validationErrorf("labels", "%v", err)
	}
	return e.Explain(inputs, labels)
}

// Close restores the plain ReLU gradient and unregisters the guided rule.
// It blocks until in-flight Explain calls return and is safe to call more
// than once.
func (e *Explainer) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true

	if e.restore != nil {
		e.restore()
	}
	if e.ruleName != "" {
		autodiff.UnregisterGradient(e.ruleName)
	}
	e.logger.Debug("explainer closed", zap.String("rule", e.ruleName))
	return nil
}

// numClasses runs the first sample through the model without a tape and
// returns the width of the (1, L) output.
func (e *Explainer) numClasses(x *tensor.RawTensor) (numClasses int, err error) {
	first, err := x.Narrow(0, 1)
	if err != nil {
		return 0, validationErrorf("inputs", "%v", err)
	}

	defer func() {
		if r := recover(); r != nil {
			err = &ComputationError{Offset: 0, Size: 1, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	out := e.model.Forward(tensor.New(first, e.backend))
	shape := out.Shape()
	if len(shape) != 2 || shape[0] != 1 {
		return 0, validationErrorf("model output", "expected (n, L) class scores, got shape %v", shape)
	}
	return shape[1], nil
}
