package utils

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var numbers = message.NewPrinter(language.English)

// Thousands renders v rounded to whole units with comma grouping, e.g. 1,234,568.
func Thousands(v float64) string {
	return numbers.Sprintf("%.0f", v)
}

// Money renders dollars with cents and comma grouping. signed puts an
// explicit + on non-negative amounts: $+1,234.50, $-110.00.
func Money(v float64, signed bool) string {
	abs := numbers.Sprintf("%.2f", math.Abs(v))
	switch {
	case v < 0 && abs != "0.00":
		return "$-" + abs
	case signed:
		return "$+" + abs
	}
	return "$" + abs
}
