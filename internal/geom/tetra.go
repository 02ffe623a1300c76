package geom

import "github.com/go-gl/mathgl/mgl64"

// SignedTetraVolume returns the signed volume of the tetrahedron (a, b, c, d).
// The sign is positive when (b-a, c-a, d-a) form a right-handed basis.
func SignedTetraVolume(a, b, c, d mgl64.Vec3) float64 {
	ab := b.Sub(a)
	ac := c.Sub(a)
	ad := d.Sub(a)
	return ab.Dot(ac.Cross(ad)) / 6.0
}

func TetraCentroid(a, b, c, d mgl64.Vec3) mgl64.Vec3 {
	return a.Add(b).Add(c).Add(d).Mul(0.25)
}
