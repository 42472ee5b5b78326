package cloud

// BEVWindow is the inclusive vertical extent retained by the projection.
// Points with Z outside [ZMin, ZMax] are discarded before flattening.
type BEVWindow struct {
	ZMin float32
	ZMax float32
}

// DefaultBEVWindow returns the reference window: a thin slab around the
// ground plane that keeps road-surface returns and drops canopy and floor
// noise.
func DefaultBEVWindow() BEVWindow {
	return BEVWindow{ZMin: -0.1, ZMax: 0.2}
}

// Contains reports whether z lies inside the window, inclusive at both ends.
func (w BEVWindow) Contains(z float32) bool {
	return z >= w.ZMin && z <= w.ZMax
}

// ProjectBEV filters points by the vertical window and flattens the
// survivors onto the ground plane, preserving the original relative order.
// The input is never mutated.
//
// Re-projecting an already-projected sequence with a window that excludes
// zero degenerates to empty; that is a property of the filter, not guarded
// against.
func ProjectBEV(points []Point, window BEVWindow) []BEVPoint {
	out := make([]BEVPoint, 0, len(points))
	for _, p := range points {
		if !window.Contains(p.Z) {
			continue
		}
		out = append(out, p.ToBEV())
	}
	return out
}
