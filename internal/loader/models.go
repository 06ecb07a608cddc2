package loader

import (
	"fmt"
	"strings"

	"github.com/born-ml/saliency/internal/nn"
	"github.com/born-ml/saliency/internal/tensor"
)

// Layer types understood by BuildModel.
const (
	LayerLinear    = "linear"
	LayerConv2D    = "conv2d"
	LayerMaxPool2D = "maxpool2d"
	LayerReLU      = "relu"
	LayerFlatten   = "flatten"
	LayerPermute   = "permute"
)

// LayerSpec describes one layer of a model architecture.
//
// Fields that do not apply to a layer type are ignored.
type LayerSpec struct {
	Type string `yaml:"type"`

	// linear
	In  int `yaml:"in"`
	Out int `yaml:"out"`

	// conv2d (In/Out are channels), maxpool2d (Kernel, Stride)
	Kernel  int   `yaml:"kernel"`
	Stride  int   `yaml:"stride"`
	Padding int   `yaml:"padding"`
	NoBias  bool  `yaml:"no_bias"`
	Axes    []int `yaml:"axes"` // permute
}

// BuildModel creates a model from layer specs. Weights are randomly
// initialized; use LoadWeights to load trained values.
func BuildModel(specs []LayerSpec) (*nn.Model, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("model has no layers")
	}

	layers := make([]nn.Module, 0, len(specs))
	for i, spec := range specs {
		layer, err := buildLayer(spec)
		if err != nil {
			return nil, fmt.Errorf("layer %d (%s): %w", i, spec.Type, err)
		}
		layers = append(layers, layer)
	}

	return nn.NewModel(layers...), nil
}

func buildLayer(spec LayerSpec) (nn.Module, error) {
	switch strings.ToLower(spec.Type) {
	case LayerLinear:
		if spec.In <= 0 || spec.Out <= 0 {
			return nil, fmt.Errorf("in and out must be positive, got %d and %d", spec.In, spec.Out)
		}
		return nn.NewLinear(spec.In, spec.Out), nil

	case LayerConv2D:
		if spec.In <= 0 || spec.Out <= 0 || spec.Kernel <= 0 {
			return nil, fmt.Errorf("in, out and kernel must be positive")
		}
		stride := max(spec.Stride, 1)
		if spec.Padding < 0 {
			return nil, fmt.Errorf("negative padding %d", spec.Padding)
		}
		return nn.NewConv2D(spec.In, spec.Out, spec.Kernel, spec.Kernel, stride, spec.Padding, !spec.NoBias), nil

	case LayerMaxPool2D:
		if spec.Kernel <= 0 {
			return nil, fmt.Errorf("kernel must be positive, got %d", spec.Kernel)
		}
		stride := spec.Stride
		if stride <= 0 {
			stride = spec.Kernel
		}
		return nn.NewMaxPool2D(spec.Kernel, stride), nil

	case LayerReLU:
		return nn.NewReLU(), nil

	case LayerFlatten:
		return nn.NewFlatten(), nil

	case LayerPermute:
		if err := checkAxes(spec.Axes); err != nil {
			return nil, err
		}
		return nn.NewPermute(spec.Axes...), nil

	default:
		return nil, fmt.Errorf("unknown layer type %q", spec.Type)
	}
}

func checkAxes(axes []int) error {
	if len(axes) == 0 {
		return fmt.Errorf("permute needs axes")
	}
	seen := make([]bool, len(axes))
	for _, a := range axes {
		if a < 0 || a >= len(axes) || seen[a] {
			return fmt.Errorf("invalid axes %v", axes)
		}
		seen[a] = true
	}
	return nil
}

// LoadWeights loads the SafeTensors file at path into model.
// Tensor names are mapped to state dict keys by mapper (nil means identity).
func LoadWeights(model *nn.Model, path string, mapper WeightMapper) error {
	if mapper == nil {
		mapper = IdentityMapper{}
	}

	tensors, err := ReadSafeTensors(path)
	if err != nil {
		return err
	}

	stateDict := make(map[string]*tensor.RawTensor, len(tensors))
	for name, raw := range tensors {
		key, ok, err := mapper.MapName(name)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if _, dup := stateDict[key]; dup {
			return fmt.Errorf("tensors map to the same key %q", key)
		}
		stateDict[key] = raw
	}

	if err := model.LoadStateDict(stateDict); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// SaveWeights writes the model's state dict to path.
func SaveWeights(model *nn.Model, path string, metadata map[string]string) error {
	return WriteSafeTensors(path, model.StateDict(), metadata)
}
