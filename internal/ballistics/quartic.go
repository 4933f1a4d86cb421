package ballistics

import (
	"math"
	"math/cmplx"
)

// depressedQuarticRoots returns the four complex roots of
// y^4 + p*y^2 + q*y + r = 0 using Ferrari's method.
func depressedQuarticRoots(p, q, r float64) [4]complex128 {
	scale := math.Max(1, math.Max(math.Abs(p), math.Sqrt(math.Abs(r))))
	if math.Abs(q) <= 1e-12*scale*math.Sqrt(scale) {
		return biquadraticRoots(p, r)
	}

	// resolvent cubic: m^3 + p m^2 + (p^2/4 - r) m - q^2/8 = 0
	var m complex128
	for _, c := range cubicRoots(p, p*p/4-r, -q*q/8) {
		if cmplx.Abs(c) > cmplx.Abs(m) {
			m = c
		}
	}
	if m == 0 {
		return biquadraticRoots(p, r)
	}

	cp, cq := complex(p, 0), complex(q, 0)
	s := cmplx.Sqrt(2 * m)
	var out [4]complex128
	i := 0
	for _, s1 := range []complex128{1, -1} {
		d := cmplx.Sqrt(-(2*cp + 2*m + s1*2*cq/s))
		for _, s2 := range []complex128{1, -1} {
			out[i] = (s1*s + s2*d) / 2
			i++
		}
	}
	return out
}

// biquadraticRoots solves y^4 + p*y^2 + r = 0.
func biquadraticRoots(p, r float64) [4]complex128 {
	d := cmplx.Sqrt(complex(p*p-4*r, 0))
	z1 := (complex(-p, 0) + d) / 2
	z2 := (complex(-p, 0) - d) / 2
	a, b := cmplx.Sqrt(z1), cmplx.Sqrt(z2)
	return [4]complex128{a, -a, b, -b}
}

// cubicRoots returns the roots of m^3 + a m^2 + b m + c = 0 (Cardano).
func cubicRoots(a, b, c float64) [3]complex128 {
	p := b - a*a/3
	q := 2*a*a*a/27 - a*b/3 + c
	shift := complex(-a/3, 0)

	disc := cmplx.Sqrt(complex(q*q/4+p*p*p/27, 0))
	u := complex(-q/2, 0) + disc
	if w := complex(-q/2, 0) - disc; cmplx.Abs(w) > cmplx.Abs(u) {
		u = w
	}
	if u == 0 {
		return [3]complex128{shift, shift, shift}
	}
	C := cmplx.Pow(u, 1.0/3)
	omega := complex(-0.5, math.Sqrt(3)/2)
	var out [3]complex128
	for k := range out {
		ck := C
		for j := 0; j < k; j++ {
			ck *= omega
		}
		out[k] = ck - complex(p, 0)/(3*ck) + shift
	}
	return out
}

// smallestPositiveRoot picks the smallest real, strictly positive root and
// polishes it with Newton steps on the real polynomial.
func smallestPositiveRoot(roots [4]complex128, p, q, r float64) (float64, bool) {
	best := math.Inf(1)
	for _, z := range roots {
		re, im := real(z), imag(z)
		if math.IsNaN(re) || math.IsInf(re, 0) || math.IsNaN(im) {
			continue
		}
		if math.Abs(im) > 1e-6*math.Max(1, math.Abs(re)) {
			continue
		}
		if re > 0 && re < best {
			best = re
		}
	}
	if math.IsInf(best, 1) {
		return 0, false
	}
	t := best
	for i := 0; i < 4; i++ {
		f := t*t*t*t + p*t*t + q*t + r
		df := 4*t*t*t + 2*p*t + q
		if df == 0 {
			break
		}
		next := t - f/df
		if !(next > 0) || math.IsInf(next, 0) {
			break
		}
		t = next
	}
	return t, true
}
