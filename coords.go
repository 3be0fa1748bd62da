package mandel

// PixelDelta is the plane distance one pixel spans. It is the same on both
// axes, so circles stay circles whatever the image aspect ratio.
func PixelDelta(width, height int, scale float64) float64 {
	return BaseSpan * scale / float64(max(width, height, 1))
}

// PixelToComplex maps pixel (x, y) of a width×height image centred on origin
// to its point in the complex plane. Pixel y grows downwards while the
// imaginary axis grows upwards.
func PixelToComplex(x, y, width, height int, scale float64, origin complex128) complex128 {
	delta := PixelDelta(width, height, scale)
	re := real(origin) + (float64(x)-float64(width)/2)*delta
	im := imag(origin) - (float64(y)-float64(height)/2)*delta
	return complex(re, im)
}
