// Package weather turns a day's forecast into an ASCII-art receipt by
// resolving a configurable model template and filling in live values.
package weather

// Band is the precipitation intensity class used to pick a model variant.
type Band int

const (
	BandNone Band = iota
	BandModerate
	BandHeavy
)

const (
	moderateThreshold = 2.5
	heavyThreshold    = 10
)

func (b Band) String() string {
	switch b {
	case BandModerate:
		return "moderate"
	case BandHeavy:
		return "heavy"
	default:
		return "none"
	}
}

// Classify maps a precipitation percentage to its band. Lower bounds are
// inclusive.
func Classify(precip float64) Band {
	switch {
	case precip >= heavyThreshold:
		return BandHeavy
	case precip >= moderateThreshold:
		return BandModerate
	default:
		return BandNone
	}
}

// Key is the model key for icon at band: "icon-band", or just "icon" when
// there is no precipitation.
func Key(icon string, b Band) string {
	if b == BandNone {
		return icon
	}
	return icon + "-" + b.String()
}
