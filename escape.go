package mandel

// escapeRadius2 is the squared escape radius.
const escapeRadius2 = 4.0

// EscapeIterations runs z ← z² + c from z = 0 and returns the step at which
// |z| first exceeds 2. Orbits still inside after iterationMax steps return
// iterationMax. |z| == 2 is not an escape.
func EscapeIterations(c complex128, iterationMax int) int {
	cr, ci := real(c), imag(c)
	var zr, zi float64
	for n := 0; n < iterationMax; n++ {
		zr2, zi2 := zr*zr, zi*zi
		if zr2+zi2 > escapeRadius2 {
			return n
		}
		zr, zi = zr2-zi2+cr, 2*zr*zi+ci
	}
	return max(iterationMax, 0)
}
