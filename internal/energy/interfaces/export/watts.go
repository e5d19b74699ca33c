package export

import (
	"fmt"
	"math"
)

// FormatWatts renders a megawatt quantity with the largest fitting unit:
// TW from one million MW, GW from one thousand, MW below.
func FormatWatts(mw float64) string {
	abs := math.Abs(mw)
	switch {
	case abs >= 1_000_000:
		return fmt.Sprintf("%.1f TW", mw/1_000_000)
	case abs >= 1_000:
		return fmt.Sprintf("%.1f GW", mw/1_000)
	default:
		return fmt.Sprintf("%.1f MW", mw)
	}
}
