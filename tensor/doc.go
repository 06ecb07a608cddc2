// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public tensor types used by the saliency module.
//
// # Overview
//
// Two layers are exposed:
//   - RawTensor: contiguous float32 storage with a shape, no backend
//   - Tensor: a RawTensor bound to a Backend, with method-chained operations
//
// Operations on Tensor dispatch to the bound backend. When that backend is an
// autodiff.Backend the operation is recorded on its tape.
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/saliency/backend/cpu"
//	    "github.com/born-ml/saliency/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//
//	    x, _ := tensor.FromSliceOn([]float32{1, -2, 3, -4}, tensor.Shape{2, 2}, backend)
//	    y := x.ReLU().MatMul(x.Transpose())
//	    fmt.Println(y.Data())
//	}
//
// # Layout
//
// Image batches are (N, C, H, W). Layers expecting channel-last data are
// preceded by an nn.Permute.
package tensor
