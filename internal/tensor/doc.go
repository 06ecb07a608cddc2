// Package tensor provides the float32 tensors used by the saliency packages.
//
// RawTensor is the storage type handed to backends and recorded on gradient
// tapes. Tensor wraps a RawTensor together with the Backend that computes on
// it, which lets the same layer code run with or without gradient recording.
package tensor
