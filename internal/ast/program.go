package ast

import (
	"fmt"
	"os"

	"github.com/vmihailenco/msgpack/v5"

	"mmlc/internal/symbols"
)

// Current schema version - increment when the Program format changes.
const programSchemaVersion uint16 = 1

// Program is the serialized hand-off between the frontend and this backend:
// one typed module plus the resolvable index entries it references.
type Program struct {
	Schema uint16
	Module Module
	Defs   []symbols.Def
}

// EncodeProgram renders a program to its on-disk msgpack form.
func EncodeProgram(p *Program) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("nil program")
	}
	cp := *p
	cp.Schema = programSchemaVersion
	data, err := msgpack.Marshal(&cp)
	if err != nil {
		return nil, fmt.Errorf("failed to encode program: %w", err)
	}
	return data, nil
}

// DecodeProgram parses the msgpack form produced by the frontend.
func DecodeProgram(data []byte) (*Program, error) {
	var p Program
	if err := msgpack.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to decode program: %w", err)
	}
	if p.Schema != programSchemaVersion {
		return nil, fmt.Errorf("unsupported program schema %d (want %d)", p.Schema, programSchemaVersion)
	}
	return &p, nil
}

// LoadProgram reads and decodes a typed-tree file.
func LoadProgram(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read typed tree %q: %w", path, err)
	}
	return DecodeProgram(data)
}
