package morph

import "errors"

// Sentinel errors for morph operations.
var (
	// ErrNilImage indicates a marker, mask or output image was nil.
	ErrNilImage = errors.New("morph: image must not be nil")
	// ErrDimensionMismatch indicates images or regions of differing dimensionality.
	ErrDimensionMismatch = errors.New("morph: dimensionality mismatch")
	// ErrDomainMismatch indicates marker and mask do not share the same domain.
	ErrDomainMismatch = errors.New("morph: marker and mask domains differ")
	// ErrEmptyDomain indicates an image with no pixels.
	ErrEmptyDomain = errors.New("morph: image domain is empty")
	// ErrOutputRegion indicates a caller-supplied output does not cover the planned output region.
	ErrOutputRegion = errors.New("morph: output buffer does not cover the planned output region")
	// ErrAliasedOutput indicates an output buffer that is also the marker or the mask.
	ErrAliasedOutput = errors.New("morph: output must not alias marker or mask")
	// ErrBufferSize indicates a pixel slice whose length does not match its region.
	ErrBufferSize = errors.New("morph: pixel buffer length does not match region")
	// ErrBadConnectivity indicates an unknown Connectivity value.
	ErrBadConnectivity = errors.New("morph: unknown connectivity")
	// ErrBadRunMode indicates an unknown RunMode value.
	ErrBadRunMode = errors.New("morph: unknown run mode")
	// ErrNotConverged indicates the iteration cap was exhausted before a fixed point.
	// With marker >= mask this never happens; it points at a bug, not at the data.
	ErrNotConverged = errors.New("morph: no fixed point within iteration cap")
	// ErrInvariant indicates a pass raised a pixel above the previous iteration's value.
	ErrInvariant = errors.New("morph: monotonicity invariant violated")
)
