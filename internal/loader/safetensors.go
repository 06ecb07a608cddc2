package loader

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"github.com/born-ml/saliency/internal/tensor"
)

// SafeTensors format:
// [8 bytes: header_size (uint64 LE)]
// [header_size bytes: JSON header]
// [tensor data: raw bytes]

// maxHeaderSize bounds the JSON header read from untrusted files.
const maxHeaderSize = 100 * 1024 * 1024

// SafeTensorsDType represents supported SafeTensors data types.
type SafeTensorsDType string

// Supported SafeTensors dtypes.
const (
	SafeTensorsF32 SafeTensorsDType = "F32"
	SafeTensorsF64 SafeTensorsDType = "F64"
	SafeTensorsI32 SafeTensorsDType = "I32"
	SafeTensorsI64 SafeTensorsDType = "I64"
	SafeTensorsU8  SafeTensorsDType = "U8"
)

// Size returns the element size in bytes, or 0 for an unsupported dtype.
func (d SafeTensorsDType) Size() int {
	switch d {
	case SafeTensorsF64, SafeTensorsI64:
		return 8
	case SafeTensorsF32, SafeTensorsI32:
		return 4
	case SafeTensorsU8:
		return 1
	default:
		return 0
	}
}

// SafeTensorInfo describes a tensor in SafeTensors format.
type SafeTensorInfo struct {
	DType       SafeTensorsDType `json:"dtype"`
	Shape       []int            `json:"shape"`
	DataOffsets [2]int64         `json:"data_offsets"` // [start, end]
}

// SafeTensorsHeader is the JSON header in SafeTensors format.
type SafeTensorsHeader struct {
	Metadata map[string]string
	Tensors  map[string]SafeTensorInfo
}

// UnmarshalJSON implements custom JSON unmarshaling for SafeTensorsHeader.
func (h *SafeTensorsHeader) UnmarshalJSON(data []byte) error {
	var rawMap map[string]json.RawMessage
	if err := json.Unmarshal(data, &rawMap); err != nil {
		return err
	}

	if metadataRaw, ok := rawMap["__metadata__"]; ok {
		if err := json.Unmarshal(metadataRaw, &h.Metadata); err != nil {
			return fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	// Everything except __metadata__ is a tensor.
	h.Tensors = make(map[string]SafeTensorInfo, len(rawMap))
	for key, value := range rawMap {
		if key == "__metadata__" {
			continue
		}
		var info SafeTensorInfo
		if err := json.Unmarshal(value, &info); err != nil {
			return fmt.Errorf("failed to unmarshal tensor %s: %w", key, err)
		}
		h.Tensors[key] = info
	}

	return nil
}

// SafeTensorsReader reads SafeTensors format files.
type SafeTensorsReader struct {
	file       *os.File
	header     SafeTensorsHeader
	dataOffset int64 // Offset where tensor data starts
	dataSize   int64 // Bytes available after the header
}

// NewSafeTensorsReader opens a SafeTensors file and parses its header.
func NewSafeTensorsReader(path string) (*SafeTensorsReader, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model loading
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	r, err := newSafeTensorsReader(file)
	if err != nil {
		_ = file.Close() // Best effort close on error
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

func newSafeTensorsReader(file *os.File) (*SafeTensorsReader, error) {
	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	var headerSize uint64
	if err := binary.Read(file, binary.LittleEndian, &headerSize); err != nil {
		return nil, fmt.Errorf("failed to read header size: %w", err)
	}
	if headerSize > maxHeaderSize || int64(headerSize) > stat.Size()-8 { //nolint:gosec // G115: bounded above
		return nil, fmt.Errorf("invalid header size: %d", headerSize)
	}

	headerBytes := make([]byte, headerSize)
	if _, err := io.ReadFull(file, headerBytes); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	var header SafeTensorsHeader
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		return nil, fmt.Errorf("failed to parse header JSON: %w", err)
	}

	dataOffset := int64(8 + headerSize) //nolint:gosec // G115: bounded by file size above
	return &SafeTensorsReader{
		file:       file,
		header:     header,
		dataOffset: dataOffset,
		dataSize:   stat.Size() - dataOffset,
	}, nil
}

// Close closes the SafeTensors file.
func (r *SafeTensorsReader) Close() error {
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

// Metadata returns the metadata map from the header.
func (r *SafeTensorsReader) Metadata() map[string]string {
	return r.header.Metadata
}

// TensorNames returns the names of all tensors in the file, sorted.
func (r *SafeTensorsReader) TensorNames() []string {
	names := make([]string, 0, len(r.header.Tensors))
	for name := range r.header.Tensors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TensorInfo returns information about a specific tensor.
func (r *SafeTensorsReader) TensorInfo(name string) (*SafeTensorInfo, error) {
	info, ok := r.header.Tensors[name]
	if !ok {
		return nil, fmt.Errorf("tensor %s not found", name)
	}
	return &info, nil
}

// ReadTensorData reads raw tensor bytes for a given tensor name.
func (r *SafeTensorsReader) ReadTensorData(name string) ([]byte, error) {
	info, err := r.TensorInfo(name)
	if err != nil {
		return nil, err
	}

	start, end := info.DataOffsets[0], info.DataOffsets[1]
	if start < 0 || end < start || end > r.dataSize {
		return nil, fmt.Errorf("invalid data offsets for tensor %s: [%d, %d] with %d data bytes",
			name, start, end, r.dataSize)
	}

	data := make([]byte, end-start)
	if _, err := r.file.ReadAt(data, r.dataOffset+start); err != nil {
		return nil, fmt.Errorf("failed to read tensor data: %w", err)
	}

	return data, nil
}

// LoadTensor loads a tensor and converts its values to float32.
func (r *SafeTensorsReader) LoadTensor(name string) (*tensor.RawTensor, error) {
	info, err := r.TensorInfo(name)
	if err != nil {
		return nil, err
	}

	elemSize := info.DType.Size()
	if elemSize == 0 {
		return nil, fmt.Errorf("tensor %s: unsupported dtype %s", name, info.DType)
	}

	shape := tensor.Shape(info.Shape)
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape for tensor %s: %w", name, err)
	}

	data, err := r.ReadTensorData(name)
	if err != nil {
		return nil, err
	}
	if len(data) != shape.NumElements()*elemSize {
		return nil, fmt.Errorf("tensor %s: %d bytes for shape %v of %s", name, len(data), shape, info.DType)
	}

	raw, err := tensor.NewRaw(shape)
	if err != nil {
		return nil, fmt.Errorf("failed to create tensor: %w", err)
	}
	decode(info.DType, data, raw.Data())

	return raw, nil
}

// ReadAll loads every tensor in the file.
func (r *SafeTensorsReader) ReadAll() (map[string]*tensor.RawTensor, error) {
	tensors := make(map[string]*tensor.RawTensor, len(r.header.Tensors))
	for _, name := range r.TensorNames() {
		raw, err := r.LoadTensor(name)
		if err != nil {
			return nil, err
		}
		tensors[name] = raw
	}
	return tensors, nil
}

// ReadSafeTensors loads every tensor of the file at path.
func ReadSafeTensors(path string) (map[string]*tensor.RawTensor, error) {
	r, err := NewSafeTensorsReader(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = r.Close() // Read-only file
	}()
	return r.ReadAll()
}

// decode converts little-endian elements of dtype into dst.
func decode(dtype SafeTensorsDType, src []byte, dst []float32) {
	le := binary.LittleEndian
	for i := range dst {
		switch dtype {
		case SafeTensorsF32:
			dst[i] = math.Float32frombits(le.Uint32(src[i*4:]))
		case SafeTensorsF64:
			dst[i] = float32(math.Float64frombits(le.Uint64(src[i*8:])))
		case SafeTensorsI32:
			dst[i] = float32(int32(le.Uint32(src[i*4:]))) //nolint:gosec // G115: two's complement reinterpretation
		case SafeTensorsI64:
			dst[i] = float32(int64(le.Uint64(src[i*8:]))) //nolint:gosec // G115: two's complement reinterpretation
		case SafeTensorsU8:
			dst[i] = float32(src[i])
		}
	}
}
