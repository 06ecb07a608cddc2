package loader

import (
	"fmt"
	"strings"
)

// WeightMapper maps checkpoint tensor names to model state dict keys
// ("<layer>.<param>", e.g. "0.weight").
type WeightMapper interface {
	// MapName converts a checkpoint tensor name to a state dict key.
	// ok is false for tensors that should be skipped.
	MapName(name string) (key string, ok bool, err error)
}

// IdentityMapper uses checkpoint names as they are.
type IdentityMapper struct{}

// MapName returns name unchanged.
func (IdentityMapper) MapName(name string) (string, bool, error) {
	return name, true, nil
}

// PrefixMapper strips a fixed prefix, as written by frameworks that save a
// Sequential under a parent module (e.g. "features.0.weight").
type PrefixMapper struct {
	prefix string
}

// NewPrefixMapper creates a mapper that strips prefix.
func NewPrefixMapper(prefix string) *PrefixMapper {
	return &PrefixMapper{prefix: prefix}
}

// MapName strips the prefix. Names without it are skipped.
func (m *PrefixMapper) MapName(name string) (string, bool, error) {
	key, found := strings.CutPrefix(name, m.prefix)
	if !found {
		return "", false, nil
	}
	if key == "" {
		return "", false, fmt.Errorf("tensor name %q is only the prefix", name)
	}
	return key, true, nil
}
