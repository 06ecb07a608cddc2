package explain

import "fmt"

// Reduction selects how channel gradients are combined into one map.
type Reduction string

// Supported reductions.
const (
	ReduceSum  Reduction = "sum"  // Sum over channels
	ReduceMean Reduction = "mean" // Mean over channels
	ReduceMax  Reduction = "max"  // Largest absolute value over channels
)

// Config controls an Explainer.
type Config struct {
	// OutputLayerIndex selects the layer whose output is differentiated.
	// Negative values count from the end; -1 is the last layer.
	OutputLayerIndex int

	// BatchSize is the number of samples per gradient computation.
	// 0 processes all samples at once.
	BatchSize int

	// Reduction combines the channel gradients of each pixel.
	Reduction Reduction

	// StrictOverride makes a model without ReLU layers a configuration
	// error instead of a warning.
	StrictOverride bool

	// Workers is the number of chunks computed concurrently.
	// Values <= 1 compute chunks sequentially.
	Workers int
}

// DefaultConfig returns the default explainer settings.
func DefaultConfig() Config {
	return Config{
		OutputLayerIndex: -1,
		BatchSize:        32,
		Reduction:        ReduceSum,
		Workers:          1,
	}
}

// Validate checks the settings that do not depend on the model.
func (c Config) Validate() error {
	if c.BatchSize < 0 {
		return &ConfigurationError{Field: "BatchSize", Err: fmt.Errorf("must be >= 0, got %d", c.BatchSize)}
	}
	if c.Workers < 0 {
		return &ConfigurationError{Field: "Workers", Err: fmt.Errorf("must be >= 0, got %d", c.Workers)}
	}
	switch c.Reduction {
	case "", ReduceSum, ReduceMean, ReduceMax:
	default:
		return &ConfigurationError{Field: "Reduction", Err: fmt.Errorf("unknown reduction %q", c.Reduction)}
	}
	return nil
}
