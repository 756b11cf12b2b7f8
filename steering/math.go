package steering

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Identity is the rotation that leaves every vector unchanged.
var Identity = quat.Number{Real: 1}

// Vector helpers

// Lerp linearly interpolates from a to b by t.
func Lerp(a, b r3.Vec, t float64) r3.Vec {
	return r3.Add(a, r3.Scale(t, r3.Sub(b, a)))
}

// Normalize returns the unit vector of v together with its original length.
// A zero vector is returned unchanged with length 0.
func Normalize(v r3.Vec) (r3.Vec, float64) {
	l := r3.Norm(v)
	if l == 0 {
		return v, 0
	}
	return r3.Scale(1/l, v), l
}

// MulComponents multiplies a and b component-wise.
func MulComponents(a, b r3.Vec) r3.Vec {
	return r3.Vec{X: a.X * b.X, Y: a.Y * b.Y, Z: a.Z * b.Z}
}

// ClampLength scales v down to maxLen if it is longer.
// A negative maxLen means unlimited.
func ClampLength(v r3.Vec, maxLen float64) r3.Vec {
	if maxLen < 0 || r3.Norm2(v) <= maxLen*maxLen {
		return v
	}
	u, _ := Normalize(v)
	return r3.Scale(maxLen, u)
}

// FormatVec renders v the way parameters are written: "x y z".
func FormatVec(v r3.Vec) string {
	return fmt.Sprintf("%g %g %g", v.X, v.Y, v.Z)
}

// Quaternion helpers

// NormalizeQuat returns q scaled to unit length. The zero quaternion maps to Identity.
func NormalizeQuat(q quat.Number) quat.Number {
	a := quat.Abs(q)
	if a == 0 {
		return Identity
	}
	return quat.Scale(1/a, q)
}

// Rotate applies the unit quaternion q to v.
func Rotate(q quat.Number, v r3.Vec) r3.Vec {
	return r3.Rotation(q).Rotate(v)
}

// Slerp spherically interpolates from a (t=0) to b (t=1) along the shorter arc.
func Slerp(a, b quat.Number, t float64) quat.Number {
	cos := a.Real*b.Real + a.Imag*b.Imag + a.Jmag*b.Jmag + a.Kmag*b.Kmag
	if cos < 0 {
		b = quat.Scale(-1, b)
		cos = -cos
	}

	var wa, wb float64
	if cos > 0.9995 {
		// Nearly parallel: fall back to normalised lerp.
		wa, wb = 1-t, t
	} else {
		theta := math.Acos(cos)
		sin := math.Sin(theta)
		wa = math.Sin((1-t)*theta) / sin
		wb = math.Sin(t*theta) / sin
	}
	return NormalizeQuat(quat.Add(quat.Scale(wa, a), quat.Scale(wb, b)))
}

// RotationBetween returns the shortest rotation that turns from into to.
// Degenerate (zero length) inputs yield Identity.
func RotationBetween(from, to r3.Vec) quat.Number {
	f, fl := Normalize(from)
	t, tl := Normalize(to)
	if fl == 0 || tl == 0 {
		return Identity
	}

	c := r3.Dot(f, t)
	if c >= 1-1e-9 {
		return Identity
	}
	if c <= -1+1e-9 {
		// Opposite directions: any axis perpendicular to from will do.
		axis := r3.Cross(r3.Vec{X: 1}, f)
		if r3.Norm2(axis) < 1e-12 {
			axis = r3.Cross(r3.Vec{Y: 1}, f)
		}
		axis, _ = Normalize(axis)
		return quat.Number(r3.NewRotation(math.Pi, axis))
	}

	axis, _ := Normalize(r3.Cross(f, t))
	return quat.Number(r3.NewRotation(math.Acos(c), axis))
}

// FormatQuat renders q as "w x y z".
func FormatQuat(q quat.Number) string {
	return fmt.Sprintf("%g %g %g %g", q.Real, q.Imag, q.Jmag, q.Kmag)
}
