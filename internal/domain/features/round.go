package features

import "strconv"

// Round2 rounds x to two decimal places using the correctly rounded decimal
// value of the binary float, ties to even. This matches the rounding the
// model's training pipeline applied to crr.
func Round2(x float64) float64 {
	v, err := strconv.ParseFloat(strconv.FormatFloat(x, 'f', 2, 64), 64)
	if err != nil {
		return x
	}
	return v
}
