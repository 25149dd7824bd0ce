package profile

import "math"

// minRadius is the floor applied to radial coordinates so that profiles
// with a central singularity stay finite at their center. Gradient-based
// optimizers cannot tolerate non-finite values, so a small core is the
// defined extension of every singular profile.
const minRadius = 1e-8

// maxEllipticity caps the ellipticity modulus so the axis ratio stays
// strictly positive.
const maxEllipticity = 0.9999

// ellipticityToPhiQ converts the (e1, e2) ellipticity components used in
// parameter blocks to a position angle phi (radians, counterclockwise
// from the x axis) and axis ratio q in (0, 1].
func ellipticityToPhiQ(e1, e2 float64) (phi, q float64) {
	phi = 0.5 * math.Atan2(e2, e1)
	c := math.Hypot(e1, e2)
	if c > maxEllipticity {
		c = maxEllipticity
	}
	q = (1 - c) / (1 + c)
	return phi, q
}

// phiQToEllipticity is the inverse of ellipticityToPhiQ, used by tests
// and by the configuration layer.
func phiQToEllipticity(phi, q float64) (e1, e2 float64) {
	c := (1 - q) / (1 + q)
	return c * math.Cos(2*phi), c * math.Sin(2*phi)
}

// cartToPolar converts centered Cartesian coordinates to polar (r, phi).
func cartToPolar(x, y, centerX, centerY float64) (r, phi float64) {
	dx := x - centerX
	dy := y - centerY
	return math.Hypot(dx, dy), math.Atan2(dy, dx)
}

// rotateInto rotates centered coordinates into a frame whose x axis is
// at angle phi.
func rotateInto(x, y, centerX, centerY, phi float64) (xr, yr float64) {
	dx := x - centerX
	dy := y - centerY
	c, s := math.Cos(phi), math.Sin(phi)
	return c*dx + s*dy, -s*dx + c*dy
}

// rotateBack rotates a vector from the frame at angle phi back to the
// sky frame.
func rotateBack(vx, vy, phi float64) (float64, float64) {
	c, s := math.Cos(phi), math.Sin(phi)
	return c*vx - s*vy, s*vx + c*vy
}
