// Package loader builds models from layer descriptions and moves their
// weights in and out of SafeTensors files.
//
// Example usage:
//
//	import (
//	    "github.com/born-ml/saliency/loader"
//	)
//
//	model, err := loader.BuildModel([]loader.LayerSpec{
//	    {Type: loader.LayerPermute, Axes: []int{0, 3, 2, 1}},
//	    {Type: loader.LayerConv2D, In: 1, Out: 8, Kernel: 3, Padding: 1},
//	    {Type: loader.LayerReLU},
//	    {Type: loader.LayerFlatten},
//	    {Type: loader.LayerLinear, In: 8 * 28 * 28, Out: 10},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Checkpoint saved from a parent module as "features.1.weight", ...
//	err = loader.LoadWeights(model, "model.safetensors", loader.NewPrefixMapper("features."))
package loader

import (
	"github.com/born-ml/saliency/internal/loader"
	"github.com/born-ml/saliency/nn"
	"github.com/born-ml/saliency/tensor"
)

// Layer types understood by BuildModel.
const (
	LayerLinear    = loader.LayerLinear
	LayerConv2D    = loader.LayerConv2D
	LayerMaxPool2D = loader.LayerMaxPool2D
	LayerReLU      = loader.LayerReLU
	LayerFlatten   = loader.LayerFlatten
	LayerPermute   = loader.LayerPermute
)

// LayerSpec describes one layer of a model architecture.
type LayerSpec = loader.LayerSpec

// WeightMapper maps checkpoint tensor names to model state dict keys.
type WeightMapper = loader.WeightMapper

// IdentityMapper uses checkpoint names as they are.
type IdentityMapper = loader.IdentityMapper

// PrefixMapper strips a fixed prefix from checkpoint names.
type PrefixMapper = loader.PrefixMapper

// NewPrefixMapper creates a mapper that strips prefix.
func NewPrefixMapper(prefix string) *PrefixMapper {
	return loader.NewPrefixMapper(prefix)
}

// BuildModel creates a randomly initialized model from layer specs.
func BuildModel(specs []LayerSpec) (*nn.Model, error) {
	return loader.BuildModel(specs)
}

// LoadWeights loads a SafeTensors checkpoint into model.
// A nil mapper uses checkpoint names as state dict keys.
func LoadWeights(model *nn.Model, path string, mapper WeightMapper) error {
	return loader.LoadWeights(model, path, mapper)
}

// SaveWeights writes the model's state dict to a SafeTensors file.
func SaveWeights(model *nn.Model, path string, metadata map[string]string) error {
	return loader.SaveWeights(model, path, metadata)
}

// ReadSafeTensors reads every tensor of a SafeTensors file as float32.
func ReadSafeTensors(path string) (map[string]*tensor.RawTensor, error) {
	return loader.ReadSafeTensors(path)
}

// WriteSafeTensors writes float32 tensors to a SafeTensors file.
func WriteSafeTensors(path string, tensors map[string]*tensor.RawTensor, metadata map[string]string) error {
	return loader.WriteSafeTensors(path, tensors, metadata)
}
