// Package export writes ranked candidates to the supported interchange
// formats. All formats share one column set and rounding: area and score to
// 1 decimal, compactness to 4, coordinates to 6.
package export

import "strconv"

func fmt1(v float64) string { return strconv.FormatFloat(v, 'f', 1, 64) }
func fmt4(v float64) string { return strconv.FormatFloat(v, 'f', 4, 64) }
func fmt6(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }

// round keeps n decimal places on values exported as JSON numbers.
func round(v float64, n int) float64 {
	f, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', n, 64), 64)
	return f
}
