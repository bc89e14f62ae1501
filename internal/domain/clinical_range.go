package domain

// Level classification of a measurement value against its clinical range.
type Level string

const (
	LevelNormal   Level = "normal"
	LevelWarning  Level = "warning"
	LevelCritical Level = "critical"
	LevelUnknown  Level = "unknown"
)

// ClinicalRange normal band and the wider band outside of which a value is critical.
type ClinicalRange struct {
	NormalMin   float64 `json:"normal_min"`
	NormalMax   float64 `json:"normal_max"`
	CriticalMin float64 `json:"critical_min"`
	CriticalMax float64 `json:"critical_max"`
	Unit        string  `json:"unit"`
}

var clinicalRanges = map[string]ClinicalRange{
	KindHeartRate: {NormalMin: 60, NormalMax: 100, CriticalMin: 40, CriticalMax: 130, Unit: "lpm"},
	KindOxygen:    {NormalMin: 95, NormalMax: 100, CriticalMin: 92, CriticalMax: 100, Unit: "%"},
	KindSystolic:  {NormalMin: 90, NormalMax: 130, CriticalMin: 80, CriticalMax: 140, Unit: "mmHg"},
	KindDiastolic: {NormalMin: 60, NormalMax: 85, CriticalMin: 50, CriticalMax: 90, Unit: "mmHg"},
}

// RangeFor returns the clinical range of kind, if one is defined.
func RangeFor(kind string) (ClinicalRange, bool) {
	r, ok := clinicalRanges[kind]
	return r, ok
}

// Classify kinds without a range (activity, unknown) are LevelUnknown.
func Classify(kind string, value float64) Level {
	r, ok := clinicalRanges[kind]
	if !ok {
		return LevelUnknown
	}
	switch {
	case value >= r.NormalMin && value <= r.NormalMax:
		return LevelNormal
	case value >= r.CriticalMin && value <= r.CriticalMax:
		return LevelWarning
	default:
		return LevelCritical
	}
}
