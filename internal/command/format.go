package command

import (
	"math"
	"strconv"
)

// formatFloat renders value with the given number of decimal places,
// rounding half away from zero. fmt's %.2f rounds the underlying binary
// value instead, which shifts boundary cases like 0.125.
func formatFloat(value float64, places int) string {
	pow := math.Pow(10, float64(places))
	rounded := math.Floor(math.Abs(value)*pow+0.5) / pow

	s := strconv.FormatFloat(rounded, 'f', places, 64)
	if value < 0 && rounded != 0 {
		s = "-" + s
	}
	return s
}
