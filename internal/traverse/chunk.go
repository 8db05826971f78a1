package traverse

import "github.com/born-ml/strided/internal/layout"

// MinContiguousBlock is the smallest block worth handing to a block kernel.
// Shorter runs are walked element by element.
const MinContiguousBlock = 16

// Chunked is the result of Chunk.
type Chunked struct {
	// Outer holds the layouts with the block axes removed. Each outer offset
	// is the start of one block.
	Outer []layout.Layout
	// Block is the number of elements per block (1 when no block was found
	// or it was too short).
	Block int
	// Steps holds each operand's constant stride inside a block.
	Steps []int
}

// Chunk detects the longest run of fastest axes (leading axes, since
// translated layouts are walked first-axis-fastest) along which every
// layout advances by one constant per-layout step. That run is collapsed
// into a block so that callers can run a tight loop, or a slice copy when
// every step is 1, instead of one callback per element.
//
// The layouts must already share one shape and be translated. A run shorter
// than minBlock is not collapsed.
func Chunk(layouts []layout.Layout, minBlock int) Chunked {
	steps := make([]int, len(layouts))
	if len(layouts) == 0 {
		return Chunked{Block: 1, Steps: steps}
	}
	shape := layouts[0].Shape()
	if layouts[0].Size() == 0 {
		return Chunked{Outer: layouts, Block: 1, Steps: steps}
	}

	block := 1
	started := false
	k := 0
	for ; k < len(shape); k++ {
		n := shape[k]
		if n == 1 {
			continue
		}
		if !started {
			for i, l := range layouts {
				steps[i] = l.Stride()[k]
			}
			started = true
			block = n
			continue
		}
		fits := true
		for i, l := range layouts {
			if l.Stride()[k] != steps[i]*block {
				fits = false
				break
			}
		}
		if !fits {
			break
		}
		block *= n
	}

	if block < max(minBlock, 2) {
		return Chunked{Outer: layouts, Block: 1, Steps: make([]int, len(layouts))}
	}

	outer := make([]layout.Layout, len(layouts))
	for i, l := range layouts {
		_, tail, _ := l.DimSplitAt(k)
		outer[i] = tail
	}
	return Chunked{Outer: outer, Block: block, Steps: steps}
}

// Offsets expands the chunked walk back into per-element offsets of operand
// i, in traversal order. It exists for verification and debugging; hot paths
// consume blocks directly.
func (c Chunked) Offsets(i int) []int {
	if len(c.Outer) == 0 {
		return nil
	}
	out := make([]int, 0, c.Outer[0].Size()*c.Block)
	it := NewOffsetIter(c.Outer[i])
	for {
		base, ok := it.Next()
		if !ok {
			return out
		}
		for j := 0; j < c.Block; j++ {
			out = append(out, base+j*c.Steps[i])
		}
	}
}
