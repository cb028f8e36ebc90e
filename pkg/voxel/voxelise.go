package voxel

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Tangent returns the unit local tangent at point i: a central difference
// for interior points and a one-sided difference at either end. Coincident
// neighbours give the zero vector.
func Tangent(points []r3.Vec, i int) r3.Vec {
	last := len(points) - 1
	var d r3.Vec
	switch {
	case last < 1:
		return r3.Vec{}
	case i == 0:
		d = r3.Sub(points[1], points[0])
	case i == last:
		d = r3.Sub(points[last], points[last-1])
	default:
		d = r3.Sub(points[i+1], points[i-1])
	}
	n := r3.Norm(d)
	if n == 0 {
		return r3.Vec{}
	}
	return r3.Scale(1/n, d)
}

// VoxelisePlain inserts the voxel of every in-bounds point. Revisits collapse.
func VoxelisePlain(points []r3.Vec, h Header) *Set {
	set := NewSet(None)
	for _, p := range points {
		if v, ok := h.Voxel(p); ok {
			set.Add(v)
		}
	}
	return set
}

// walk calls visit for every in-bounds point with its voxel and unit tangent
func walk(points []r3.Vec, h Header, visit func(v Voxel, tangent r3.Vec)) {
	for i, p := range points {
		v, ok := h.Voxel(p)
		if !ok {
			continue
		}
		visit(v, Tangent(points, i))
	}
}

// VoxeliseDirectional inserts every in-bounds point decorated with its local
// tangent. A voxel visited more than once accumulates the sum of its tangents,
// which is renormalised to unit length once the walk completes.
func VoxeliseDirectional(points []r3.Vec, h Header) *Set {
	set := NewSet(Direction)
	walk(points, h, set.AddDirection)
	set.Finalize()
	return set
}

// VoxeliseDixel histograms the local tangent directions of every voxel into
// the bins defined by binner. Points without a tangent (coincident
// neighbours) cannot be binned and are skipped.
func VoxeliseDixel(points []r3.Vec, h Header, binner DixelBinner) *Set {
	set := NewSet(Dixel)
	walk(points, h, func(v Voxel, tangent r3.Vec) {
		if tangent == (r3.Vec{}) {
			return
		}
		set.AddBin(v, binner.Bin(tangent))
	})
	set.Finalize()
	return set
}

// VoxeliseTOD accumulates the SH projection of every local tangent; each
// voxel ends up with the mean over the points that visited it
func VoxeliseTOD(points []r3.Vec, h Header, proj TODProjector) *Set {
	set := NewSet(TOD)
	walk(points, h, func(v Voxel, tangent r3.Vec) {
		set.AddSH(v, proj.Project(tangent))
	})
	set.Finalize()
	return set
}

// VoxeliseEndpoints inserts only the first and last points. With the
// Direction decoration each endpoint carries the unit tangent pointing toward
// its immediate neighbour. Only None and Direction decorations are supported.
func VoxeliseEndpoints(points []r3.Vec, h Header, d Decoration) *Set {
	set := NewSet(d)
	if len(points) == 0 {
		return set
	}
	last := len(points) - 1
	ends := [2]struct {
		point, neighbour int
	}{{0, 1}, {last, last - 1}}
	count := len(ends)
	if last == 0 {
		count = 1
	}

	for _, end := range ends[:count] {
		v, ok := h.Voxel(points[end.point])
		if !ok {
			continue
		}
		switch d {
		case None:
			set.Add(v)
		case Direction:
			var dir r3.Vec
			if end.neighbour >= 0 && end.neighbour <= last {
				dir = r3.Sub(points[end.neighbour], points[end.point])
				if n := r3.Norm(dir); n > 0 {
					dir = r3.Scale(1/n, dir)
				}
			}
			set.AddDirection(v, dir)
		default:
			panic("voxel: endpoint voxelisation supports only none and direction decorations")
		}
	}
	set.Finalize()
	return set
}
