// Package traverse walks strided layouts.
//
// Every traversal order is realised the same way: the layouts are rewritten
// (axes permuted, and for some orders reversed) so that a plain
// first-axis-fastest walk visits elements in the requested order. One
// iterator implementation therefore serves all orders.
package traverse

import (
	"strings"

	"github.com/pkg/errors"
)

// Order selects how jointly traversed layouts are walked.
type Order int

const (
	// RowMajor walks the last axis fastest.
	RowMajor Order = iota
	// ColMajor walks the first axis fastest.
	ColMajor
	// Auto picks RowMajor when every layout is c-prefer, ColMajor when every
	// layout is f-prefer, and the fallback order otherwise.
	Auto
	// KeepSource follows the priority operand's memory order (ascending
	// |stride|).
	KeepSource
	// Greedy orders axes by summed |stride| over all operands and reverses
	// axes that run backwards in memory.
	Greedy
	// BufferOrder follows the priority operand's memory order, reversing its
	// negative-stride axes. Only order-insensitive consumers may use it.
	BufferOrder
)

// ErrUnknownOrder is returned by ParseOrder.
var ErrUnknownOrder = errors.New("unknown traversal order")

// String returns a human-readable order name.
func (o Order) String() string {
	switch o {
	case RowMajor:
		return "RowMajor"
	case ColMajor:
		return "ColMajor"
	case Auto:
		return "Auto"
	case KeepSource:
		return "KeepSource"
	case Greedy:
		return "Greedy"
	case BufferOrder:
		return "BufferOrder"
	default:
		return "Unknown"
	}
}

// ParseOrder accepts either the full order name or its one-letter NumPy
// style code (C, F, A, K, G, B), case-insensitively.
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "c", "rowmajor", "row-major":
		return RowMajor, nil
	case "f", "colmajor", "col-major":
		return ColMajor, nil
	case "a", "auto":
		return Auto, nil
	case "k", "keep", "keepsource":
		return KeepSource, nil
	case "g", "greedy":
		return Greedy, nil
	case "b", "buffer", "bufferorder":
		return BufferOrder, nil
	}
	return 0, errors.Wrapf(ErrUnknownOrder, "%q", s)
}

// IsFixed reports whether the order is RowMajor or ColMajor, i.e. it does not
// depend on the operands.
func (o Order) IsFixed() bool {
	return o == RowMajor || o == ColMajor
}
