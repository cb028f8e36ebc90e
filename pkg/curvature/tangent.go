package curvature

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Tangents returns the raw unit tangent at every point (central difference
// in the interior, one-sided at the ends) and whether each is valid. A
// tangent is invalid when its difference vector has zero length.
func Tangents(points []r3.Vec) ([]r3.Vec, []bool) {
	tangents := make([]r3.Vec, len(points))
	valid := make([]bool, len(points))
	fillTangents(points, tangents, valid)
	return tangents, valid
}

func fillTangents(points []r3.Vec, tangents []r3.Vec, valid []bool) {
	last := len(points) - 1
	for i := range points {
		var d r3.Vec
		switch {
		case last < 1:
		case i == 0:
			d = r3.Sub(points[1], points[0])
		case i == last:
			d = r3.Sub(points[last], points[last-1])
		default:
			d = r3.Sub(points[i+1], points[i-1])
		}
		tangents[i], valid[i] = normalize(d)
	}
}

// normalize divides each component of v by its length, so axis-aligned
// vectors come out exactly unit length
func normalize(v r3.Vec) (r3.Vec, bool) {
	n := r3.Norm(v)
	if n == 0 {
		return r3.Vec{}, false
	}
	return r3.Vec{X: v.X / n, Y: v.Y / n, Z: v.Z / n}, true
}

// RepairTangents replaces every invalid tangent from its nearest valid
// neighbours. A run of invalid entries touching an end takes the nearest
// valid tangent inward; a run between two valid tangents takes their
// normalised mean. It walks each run once, with one pointer on the last valid
// index and another on the next. The result is false if no tangent is valid,
// in which case the slice is left untouched.
func RepairTangents(tangents []r3.Vec, valid []bool) bool {
	n := len(tangents)
	left := -1
	for i := 0; i < n; {
		if valid[i] {
			left = i
			i++
			continue
		}

		right := i
		for right < n && !valid[right] {
			right++
		}
		if left < 0 && right == n {
			return false
		}

		var fill r3.Vec
		switch {
		case left < 0:
			fill = tangents[right]
		case right == n:
			fill = tangents[left]
		default:
			var ok bool
			if fill, ok = normalize(r3.Add(tangents[left], tangents[right])); !ok {
				fill = tangents[left]
			}
		}
		for k := i; k < right; k++ {
			tangents[k] = fill
		}
		i = right
	}
	return true
}
