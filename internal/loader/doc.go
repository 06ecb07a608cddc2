// Package loader reads and writes the files the saliency CLI works with.
//
// This package implements:
//   - SafeTensors reader: F32, F64, I32, I64 and U8 tensors decoded to float32
//   - SafeTensors writer: F32 tensors in alphabetical order
//   - Model builder: an nn.Model from a list of layer specs
//   - Weight mapping: checkpoint tensor names to model state dict keys
//
// Example:
//
//	model, err := loader.BuildModel(specs)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := loader.LoadWeights(model, "model.safetensors", loader.NewPrefixMapper("model.")); err != nil {
//	    log.Fatal(err)
//	}
package loader
