package morph

import (
	"fmt"
	"strings"
)

// Connectivity selects the elementary structuring element used for one
// erosion step.
type Connectivity int

const (
	// Face uses the 2N axis-aligned neighbors (4 in 2D, 6 in 3D).
	Face Connectivity = iota
	// Full uses every neighbor sharing a face, edge or vertex (8 in 2D, 26 in 3D).
	Full
)

// String returns "face" or "full".
func (c Connectivity) String() string {
	switch c {
	case Face:
		return "face"
	case Full:
		return "full"
	default:
		return fmt.Sprintf("connectivity(%d)", int(c))
	}
}

func (c Connectivity) valid() bool {
	return c == Face || c == Full
}

// ParseConnectivity accepts "face" or "full", case-insensitively.
func ParseConnectivity(s string) (Connectivity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "face":
		return Face, nil
	case "full":
		return Full, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrBadConnectivity, s)
	}
}

// Offsets returns the unit offsets of the structuring element for an
// n-dimensional image, excluding the origin.
//
// Face yields exactly 2n offsets, Full yields 3^n-1. The order is stable:
// offsets are enumerated lexicographically with axis n-1 most significant.
// Offsets returns nil when n < 1.
func Offsets(c Connectivity, n int) [][]int {
	if n < 1 {
		return nil
	}
	total := 1
	for range n {
		total *= 3
	}

	var out [][]int
	for k := range total {
		o := make([]int, n)
		nonzero := 0
		rem := k
		for d := range n {
			o[d] = rem%3 - 1
			rem /= 3
			if o[d] != 0 {
				nonzero++
			}
		}
		if nonzero == 0 || (c == Face && nonzero != 1) {
			continue
		}
		out = append(out, o)
	}
	return out
}

// HaloRadius returns how far, per axis, an erosion with c reads beyond the
// pixel it writes. Both connectivities touch every axis by one unit.
func HaloRadius(c Connectivity, n int) []int {
	r := make([]int, max(n, 0))
	for _, o := range Offsets(c, n) {
		for d, v := range o {
			if v != 0 {
				r[d] = 1
			}
		}
	}
	return r
}

// RunMode selects between one geodesic erosion and reconstruction by erosion.
type RunMode int

const (
	// SingleIteration runs exactly one geodesic erosion pass.
	SingleIteration RunMode = iota
	// ToConvergence iterates geodesic erosion until the output stops changing.
	ToConvergence
)

// String returns "single" or "converge".
func (m RunMode) String() string {
	switch m {
	case SingleIteration:
		return "single"
	case ToConvergence:
		return "converge"
	default:
		return fmt.Sprintf("runmode(%d)", int(m))
	}
}

func (m RunMode) valid() bool {
	return m == SingleIteration || m == ToConvergence
}

// ParseRunMode accepts "single" or "converge", case-insensitively.
func ParseRunMode(s string) (RunMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "single":
		return SingleIteration, nil
	case "converge":
		return ToConvergence, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrBadRunMode, s)
	}
}
