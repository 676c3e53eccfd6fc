// Package hypermorph defines the shared vocabulary of the associative set
// engine: scalar value types, attribute and entity metadata consumed from the
// metadata catalog, and the sentinel errors every subsystem classifies with.
//
// The engine itself lives in the subpackages:
//
//   - hacol: dictionary-encoded column (HyperAtom collection) and its pipeline
//   - haset: associative row set (a set of columns sharing a row dimension)
//   - condition: the predicate mini-language
//   - mask: boolean row-mask algebra
//   - batch: materialized batch model and .batch persistence
//   - output: result formatters
package hypermorph

import (
	"fmt"
	"strings"
)

// ValueType identifies the declared scalar type of an attribute's values.
type ValueType int

const (
	TypeInvalid ValueType = iota
	TypeBool
	TypeInt8
	TypeInt16
	TypeInt32
	TypeInt64
	TypeFloat32
	TypeFloat64
	TypeString
	TypeDate      // days since Unix epoch, stored as int64
	TypeTimestamp // milliseconds since Unix epoch, stored as int64
)

var typeNames = map[ValueType]string{
	TypeBool:      "bool",
	TypeInt8:      "int8",
	TypeInt16:     "int16",
	TypeInt32:     "int32",
	TypeInt64:     "int64",
	TypeFloat32:   "float32",
	TypeFloat64:   "float64",
	TypeString:    "string",
	TypeDate:      "date",
	TypeTimestamp: "timestamp",
}

// String returns the lowercase type name used in attribute metadata.
func (t ValueType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("ValueType(%d)", int(t))
}

// Numeric reports whether values of this type order as numbers.
func (t ValueType) Numeric() bool {
	switch t {
	case TypeInt8, TypeInt16, TypeInt32, TypeInt64,
		TypeFloat32, TypeFloat64, TypeDate, TypeTimestamp:
		return true
	}
	return false
}

// ParseValueType converts a type name from attribute metadata to a ValueType.
func ParseValueType(name string) (ValueType, error) {
	for t, n := range typeNames {
		if n == strings.ToLower(strings.TrimSpace(name)) {
			return t, nil
		}
	}
	return TypeInvalid, fmt.Errorf("%w: unknown value type %q", ErrTypeMismatch, name)
}

// Attribute is the per-column metadata the engine consumes from the metadata
// catalog: a stable dimensional identifier (dim2), the declared value type,
// human-readable names, and the junction flag marking attributes shared by
// more than one entity. The engine never special-cases junction attributes;
// the flag is carried for the cross-entity linking consumer.
type Attribute struct {
	Dim2     uint32
	Name     string
	Alias    string
	VType    ValueType
	Junction bool
}

// Entity identifies one associative set by its dimensional key. The key also
// names the persisted batch file: <dim4>.<dim3>.<dim2>.batch.
type Entity struct {
	Dim4  uint32
	Dim3  uint32
	Dim2  uint32
	Name  string
	Alias string
}

// Key returns the dimensional key of the entity.
func (e Entity) Key() string {
	return fmt.Sprintf("%d.%d.%d", e.Dim4, e.Dim3, e.Dim2)
}
