package tensor

// Backend defines the interface that all compute backends must implement.
// Backends handle the actual computation for tensor operations.
//
// Every operation allocates its result and leaves its inputs untouched.
// Shape errors are programmer errors and panic with an "op: detail" message.
type Backend interface {
	// Element-wise addition with NumPy-style broadcasting.
	Add(a, b *RawTensor) *RawTensor

	// SumTo reduces a broadcast result back to shape by summing over the
	// broadcast dimensions. It is the adjoint of broadcasting in Add.
	SumTo(x *RawTensor, shape Shape) *RawTensor

	// MatMul performs 2D matrix multiplication: (M, K) @ (K, N) -> (M, N).
	MatMul(a, b *RawTensor) *RawTensor

	// Shape operations
	Reshape(t *RawTensor, newShape Shape) *RawTensor
	Transpose(t *RawTensor, axes ...int) *RawTensor

	// ReLU applies max(0, x) element-wise.
	ReLU(x *RawTensor) *RawTensor

	// Convolutional operations, NCHW layout.
	Conv2D(input, kernel *RawTensor, stride, padding int) *RawTensor
	Conv2DInputBackward(input, kernel, grad *RawTensor, stride, padding int) *RawTensor
	Conv2DKernelBackward(input, kernel, grad *RawTensor, stride, padding int) *RawTensor
	MaxPool2D(input *RawTensor, kernelSize, stride int) *RawTensor
	MaxPool2DBackward(input, grad *RawTensor, maxIndices []int, kernelSize, stride int) *RawTensor

	// Name returns a human-readable backend name.
	Name() string
}
