package main

import (
	"fmt"
	"io"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/born-ml/strided/strided"
)

// maxPrinted caps the number of offsets printed by the layout command.
const maxPrinted = 64

func newLayoutCmd() *cobra.Command {
	var (
		stride string
		offset int
		order  string
	)
	cmd := &cobra.Command{
		Use:   "layout SHAPE",
		Short: "Describe a layout and list its offsets in a traversal order",
		Example: `  strided layout 2x3
  strided layout 3x4 --stride 1,3 --order c
  strided layout 4x4 --stride -4,1 --offset 12 --order greedy`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			shape, err := parseShape(args[0])
			if err != nil {
				return err
			}
			o, err := strided.ParseOrder(order)
			if err != nil {
				return err
			}
			var l strided.Layout
			if stride == "" {
				l = strided.NewContigLayout(shape, offset, true)
			} else {
				st, err := parseInts(stride, ",")
				if err != nil {
					return err
				}
				if l, err = strided.NewLayout(shape, strided.Stride(st), offset); err != nil {
					return err
				}
			}
			describeLayout(cmd.OutOrStdout(), l, o)
			return nil
		},
	}
	cmd.Flags().StringVar(&stride, "stride", "", "comma-separated strides (default: row-major)")
	cmd.Flags().IntVar(&offset, "offset", 0, "base offset")
	cmd.Flags().StringVar(&order, "order", "c", "traversal order: c, f, a, k, g or b")
	return cmd
}

func describeLayout(w io.Writer, l strided.Layout, o strided.Order) {
	lo1, hi := l.BoundsIndex()
	fmt.Fprintf(w, "%v\n", l)
	fmt.Fprintf(w, "  size:       %d\n", l.Size())
	fmt.Fprintf(w, "  bounds:     [%d, %d)\n", lo1, hi)
	fmt.Fprintf(w, "  c-contig:   %v (prefer %v)\n", l.IsCContig(), l.IsCPrefer())
	fmt.Fprintf(w, "  f-contig:   %v (prefer %v)\n", l.IsFContig(), l.IsFPrefer())
	fmt.Fprintf(w, "  broadcast:  %v\n", l.HasBroadcastAxes())

	offs := strided.Offsets(l, o)
	suffix := ""
	if len(offs) > maxPrinted {
		offs, suffix = offs[:maxPrinted], " ..."
	}
	fmt.Fprintf(w, "  %s offsets: %s%s\n", o, joinInts(offs, " "), suffix)
}

func newPlanCmd() *cobra.Command {
	var order string
	cmd := &cobra.Command{
		Use:     "plan SHAPE_A SHAPE_B",
		Short:   "Show how a matmul of the given shapes is dispatched",
		Example: "  strided plan 3 5x3x4\n  strided plan 2x1x3x4 5x4x2 --order f",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := parseShape(args[0])
			if err != nil {
				return err
			}
			b, err := parseShape(args[1])
			if err != nil {
				return err
			}
			o, err := strided.ParseOrder(order)
			if err != nil {
				return err
			}
			cfg := strided.DefaultConfig()
			cfg.Parallel.NumThreads = 1
			cfg.MatMulOrder = o
			e, err := strided.NewEngine(cfg)
			if err != nil {
				return err
			}
			defer e.Close()

			p, err := strided.PlanMatMul(e,
				strided.NewContigLayout(a, 0, true),
				strided.NewContigLayout(b, 0, true))
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "kind:    %s\n", p.Kind)
			fmt.Fprintf(w, "m, k, n: %d, %d, %d\n", p.M, p.K, p.N)
			fmt.Fprintf(w, "batch:   %v (%d kernel calls)\n", []int(p.BatchShape), p.Batches())
			fmt.Fprintf(w, "output:  %v\n", p.Output)
			return nil
		},
	}
	cmd.Flags().StringVar(&order, "order", "a", "output order: c, f or a")
	return cmd
}

func newMatMulCmd() *cobra.Command {
	var (
		threads int
		kernel  string
		repeat  int
		f32     bool
	)
	cmd := &cobra.Command{
		Use:     "matmul SHAPE_A SHAPE_B",
		Short:   "Multiply random operands and report timing",
		Example: "  strided matmul 16x128x64 16x64x32 --threads 4 --kernel gonum",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !lo.Contains([]string{strided.KernelNative, strided.KernelGonum}, kernel) {
				return errors.Errorf("unknown kernel %q", kernel)
			}
			a, err := parseShape(args[0])
			if err != nil {
				return err
			}
			b, err := parseShape(args[1])
			if err != nil {
				return err
			}
			cfg := strided.DefaultConfig()
			cfg.Parallel.NumThreads = threads
			cfg.Kernel = kernel
			e, err := strided.NewEngine(cfg)
			if err != nil {
				return err
			}
			defer e.Close()

			if f32 {
				return benchMatMul[float32](cmd.OutOrStdout(), e, a, b, repeat)
			}
			return benchMatMul[float64](cmd.OutOrStdout(), e, a, b, repeat)
		},
	}
	cmd.Flags().IntVar(&threads, "threads", 0, "worker threads (0 = GOMAXPROCS)")
	cmd.Flags().StringVar(&kernel, "kernel", strided.KernelNative, "kernel: native or gonum")
	cmd.Flags().IntVar(&repeat, "repeat", 5, "number of timed runs")
	cmd.Flags().BoolVar(&f32, "f32", false, "use float32 instead of float64")
	return cmd
}

func benchMatMul[T strided.Float](w io.Writer, e *strided.Engine, sa, sb strided.Shape, repeat int) error {
	rng := rand.New(rand.NewPCG(1, 2))
	random := func(s strided.Shape) (strided.View[T], error) {
		data := make([]T, s.NumElements())
		for i := range data {
			data[i] = T(rng.Float64()*2 - 1)
		}
		return strided.Contiguous(data, s, true)
	}
	a, err := random(sa)
	if err != nil {
		return err
	}
	b, err := random(sb)
	if err != nil {
		return err
	}

	var (
		c    strided.View[T]
		best time.Duration
	)
	for i := 0; i < max(repeat, 1); i++ {
		start := time.Now()
		if c, err = strided.MatMul(e, a, b); err != nil {
			return err
		}
		if d := time.Since(start); i == 0 || d < best {
			best = d
		}
	}
	fmt.Fprintf(w, "output %v, threads %d, kernel %s\n", []int(c.Shape()), e.Threads(), e.Config().Kernel)
	fmt.Fprintf(w, "best of %d: %v, checksum %.6g\n", max(repeat, 1), best, float64(strided.Sum(e, c)))
	return nil
}

// parseShape parses "2x3x4". An empty string or "scalar" is rank 0.
func parseShape(s string) (strided.Shape, error) {
	if s == "" || s == "scalar" {
		return strided.Shape{}, nil
	}
	dims, err := parseInts(s, "x")
	if err != nil {
		return nil, err
	}
	shape := strided.Shape(dims)
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	return shape, nil
}

func parseInts(s, sep string) ([]int, error) {
	parts := strings.Split(s, sep)
	out := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, errors.Wrapf(err, "parse %q", s)
		}
		out[i] = v
	}
	return out, nil
}

func joinInts(v []int, sep string) string {
	return strings.Join(lo.Map(v, func(x int, _ int) string { return strconv.Itoa(x) }), sep)
}
