package morph

// Plan names the regions one run needs: the output it will produce and the
// parts of the marker and mask that must be readable to produce it.
type Plan struct {
	Output Region
	Marker Region
	Mask   Region
}

// PlanInputRegion computes the regions a run needs for a requested output.
//
// For SingleIteration the output is the request clipped to domain, the marker
// region is that output grown by the connectivity's halo and clipped again,
// and the mask region is the output itself (the mask is read pointwise).
//
// For ToConvergence all three are the whole domain whatever was requested:
// values propagate across the image from one iteration to the next, so a
// sub-region computed in isolation would settle on a different fixed point.
//
// A zero requested Region stands for the whole domain. Requests reaching
// outside the domain are clipped, never rejected.
func PlanInputRegion(requested, domain Region, conn Connectivity, mode RunMode) Plan {
	if mode == ToConvergence {
		return Plan{
			Output: NewRegion(domain.Index, domain.Size),
			Marker: NewRegion(domain.Index, domain.Size),
			Mask:   NewRegion(domain.Index, domain.Size),
		}
	}

	if requested.Dim() == 0 {
		requested = domain
	}
	out := requested.Crop(domain)
	marker := out
	if !out.Empty() {
		marker = out.Dilate(HaloRadius(conn, out.Dim())).Crop(domain)
	}
	return Plan{
		Output: out,
		Marker: marker,
		Mask:   NewRegion(out.Index, out.Size),
	}
}
