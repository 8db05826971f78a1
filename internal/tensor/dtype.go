// Package tensor binds a layout to a Go slice, giving a typed strided view
// over caller-owned memory.
package tensor

import "reflect"

// DType is a constraint for supported element types.
type DType interface {
	~float32 | ~float64 | ~int32 | ~int64 | ~uint8
}

// Float is the subset of DType that the numeric kernels accept.
type Float interface {
	~float32 | ~float64
}

// DataType represents runtime type information for views.
type DataType int

// Supported data types.
const (
	Float32 DataType = iota
	Float64
	Int32
	Int64
	Uint8
)

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Uint8:
		return "uint8"
	default:
		return "unknown"
	}
}

// DataTypeOf returns the DataType of T. Named types map to their
// underlying kind.
func DataTypeOf[T DType]() DataType {
	switch reflect.TypeFor[T]().Kind() {
	case reflect.Float32:
		return Float32
	case reflect.Float64:
		return Float64
	case reflect.Int32:
		return Int32
	case reflect.Int64:
		return Int64
	default:
		return Uint8
	}
}
