package fsm

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Codec encodes machine-state snapshots into the opaque byte buffers the
// storage boundary expects. The wire format only needs to be a stable
// serialization of {value, context}.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

type JSONCodec struct{}

func (JSONCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

type YAMLCodec struct{}

func (YAMLCodec) Marshal(v any) ([]byte, error) {
	return yaml.Marshal(v)
}

func (YAMLCodec) Unmarshal(data []byte, v any) error {
	return yaml.Unmarshal(data, v)
}

type snapshot[C any] struct {
	Value   string `json:"value" yaml:"value"`
	Context C      `json:"context" yaml:"context"`
}

// MarshalState serializes a machine state, with JSON as the default
// codec.
func MarshalState[C any](state MachineState[C], maybeCodec ...Codec) ([]byte, error) {
	var codec Codec = JSONCodec{}
	if len(maybeCodec) > 0 {
		codec = maybeCodec[0]
	}
	return codec.Marshal(snapshot[C]{
		Value:   state.value.qualifiedName,
		Context: state.context,
	})
}

// UnmarshalState deserializes a machine state and validates its value
// against the machine's graph; a value that names no known state yields
// ErrInvalidState, which indicates a corrupt or foreign snapshot.
func UnmarshalState[C any](m *Machine[C], data []byte, maybeCodec ...Codec) (MachineState[C], error) {
	var zero MachineState[C]
	var codec Codec = JSONCodec{}
	if len(maybeCodec) > 0 {
		codec = maybeCodec[0]
	}
	var snap snapshot[C]
	if err := codec.Unmarshal(data, &snap); err != nil {
		return zero, fmt.Errorf("fsm: decode snapshot: %w", err)
	}
	value := stateValueOf(snap.Value)
	if _, ok := m.namespace[value.qualifiedName]; !ok {
		return zero, fmt.Errorf("%w: %q", ErrInvalidState, snap.Value)
	}
	return MachineState[C]{value: value, context: snap.Context}, nil
}
