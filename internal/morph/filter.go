package morph

import (
	"cmp"
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ironsheep/morph-tools-mcp/internal/parallel"
)

// IterationFunc observes the output of each completed pass. out is a buffer
// the filter keeps reusing; Clone it to keep a copy past the call.
type IterationFunc[T cmp.Ordered] func(iteration int, out *Image[T])

// Filter performs grayscale geodesic erosion of a marker image under a mask
// image, either for one pass or until the output stops changing
// (reconstruction by erosion).
//
// The marker must be pixelwise greater than or equal to the mask. This is
// not checked: when it does not hold the output is meaningless but the run
// still completes.
//
// A Filter may be reused for several runs but must not run concurrently
// with itself. Its fields are configuration and are read once per run.
type Filter[T cmp.Ordered] struct {
	// Connectivity selects the elementary structuring element.
	Connectivity Connectivity

	// Mode selects a single pass or iteration to a fixed point.
	Mode RunMode

	// Workers is the number of goroutines per pass; 0 means GOMAXPROCS.
	Workers int

	// MaxIterations caps the convergence loop; 0 or less means no cap.
	// Hitting the cap yields ErrNotConverged.
	MaxIterations int

	// Logger receives per-iteration diagnostics at debug level.
	// Nil uses log.Default().
	Logger *log.Logger

	// OnIteration, when set, is called after every pass.
	OnIteration IterationFunc[T]

	iterations int
}

// Result is the outcome of one Filter run.
type Result[T cmp.Ordered] struct {
	// Output covers Plan.Output (the whole domain for ToConvergence).
	Output *Image[T]

	// Iterations is the number of passes executed.
	Iterations int

	// Plan holds the regions the run read and wrote.
	Plan Plan

	// Elapsed is the wall time spent in passes.
	Elapsed time.Duration
}

// NewFilter returns a face-connected filter that runs to convergence on
// GOMAXPROCS workers.
func NewFilter[T cmp.Ordered]() *Filter[T] {
	return &Filter[T]{
		Connectivity: Face,
		Mode:         ToConvergence,
	}
}

// Iterations returns the number of passes used by the most recent run.
func (f *Filter[T]) Iterations() int {
	return f.iterations
}

func (f *Filter[T]) logger() *log.Logger {
	if f.Logger != nil {
		return f.Logger
	}
	return log.Default()
}

// Run computes the filter output for the requested region and allocates the
// output image. A zero requested Region selects the whole domain; in
// ToConvergence mode the output always covers the whole domain.
func (f *Filter[T]) Run(ctx context.Context, marker, mask *Image[T], requested Region) (*Result[T], error) {
	return f.run(ctx, marker, mask, requested, nil)
}

// RunInto is Run writing into out, whose region must cover the planned
// output region. Pixels of out outside that region are left untouched.
func (f *Filter[T]) RunInto(ctx context.Context, marker, mask *Image[T], requested Region, out *Image[T]) (*Result[T], error) {
	if out == nil {
		return nil, ErrNilImage
	}
	if out == marker || out == mask {
		return nil, ErrAliasedOutput
	}
	return f.run(ctx, marker, mask, requested, out)
}

func (f *Filter[T]) run(ctx context.Context, marker, mask *Image[T], requested Region, out *Image[T]) (*Result[T], error) {
	f.iterations = 0
	if err := validateInputs(marker, mask, requested, f.Connectivity, f.Mode); err != nil {
		return nil, err
	}

	plan := PlanInputRegion(requested, marker.Region(), f.Connectivity, f.Mode)
	if out == nil {
		out = NewImage[T](plan.Output)
	} else {
		if out.Dim() != marker.Dim() {
			return nil, fmt.Errorf("%w: output is %d-D, images are %d-D", ErrDimensionMismatch, out.Dim(), marker.Dim())
		}
		if !out.region.ContainsRegion(plan.Output) {
			return nil, fmt.Errorf("%w: output %s, planned %s", ErrOutputRegion, out.region, plan.Output)
		}
	}

	res := &Result[T]{Output: out, Plan: plan}
	if plan.Output.Empty() {
		return res, nil
	}

	pool := parallel.NewPool(f.Workers)
	defer pool.Close()

	offsets := Offsets(f.Connectivity, marker.Dim())
	start := time.Now()

	var err error
	switch f.Mode {
	case SingleIteration:
		err = f.single(ctx, pool, out, marker, mask, plan, offsets)
	case ToConvergence:
		err = f.converge(ctx, pool, out, marker, mask, plan.Output, offsets)
	}
	res.Iterations = f.iterations
	res.Elapsed = time.Since(start)
	if err != nil {
		return nil, err
	}

	f.logger().Debug("geodesic erosion finished",
		"mode", f.Mode,
		"connectivity", f.Connectivity,
		"iterations", res.Iterations,
		"region", plan.Output,
		"duration", res.Elapsed)
	return res, nil
}

func (f *Filter[T]) single(ctx context.Context, pool *parallel.Pool, out, marker, mask *Image[T], plan Plan, offsets [][]int) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("geodesic erosion cancelled: %w", err)
	}
	runPass(pool, out, marker, mask, plan.Output, plan.Marker, offsets)
	f.iterations = 1
	if f.OnIteration != nil {
		f.OnIteration(1, out)
	}
	return nil
}

// converge iterates passes over domain, feeding each output back in as the
// next marker, until a pass changes nothing.
//
// Every pass yields an image that is pointwise <= its marker and >= the
// mask, so the sequence is non-increasing and bounded below; over a finite
// pixel set it must stop. The first pass is exempt from the rise check
// because a caller-side marker < mask violation shows up there.
func (f *Filter[T]) converge(ctx context.Context, pool *parallel.Pool, out, marker, mask *Image[T], domain Region, offsets [][]int) error {
	prev, next := marker, out
	var spare *Image[T]

	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("reconstruction cancelled after %d iterations: %w", f.iterations, err)
		}
		if f.MaxIterations > 0 && f.iterations >= f.MaxIterations {
			return fmt.Errorf("%w: stopped after %d iterations", ErrNotConverged, f.iterations)
		}

		st := runPass(pool, next, prev, mask, domain, domain, offsets)
		f.iterations++
		f.logger().Debug("geodesic erosion pass",
			"iteration", f.iterations,
			"changed", st.changed,
			"tiles", st.tiles)
		if f.OnIteration != nil {
			f.OnIteration(f.iterations, next)
		}

		if st.rose && f.iterations > 1 {
			return fmt.Errorf("%w: a pixel increased at iteration %d", ErrInvariant, f.iterations)
		}
		if !st.changed {
			break
		}

		if prev == marker {
			// The caller's marker is never written; bring in a second buffer.
			if spare == nil {
				spare = NewImage[T](domain)
			}
			prev, next = next, spare
		} else {
			prev, next = next, prev
		}
	}

	if next != out {
		copyRegion(out, next, domain)
	}
	return nil
}
