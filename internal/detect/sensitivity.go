package detect

import (
	"math"
	"time"
)

const (
	MinSensitivity     = 0
	MaxSensitivity     = 100
	DefaultSensitivity = 50
)

// Thresholds are everything the detector derives from the sensitivity dial.
// Higher sensitivity means a lower volume gate, shorter streaks, wider cent
// windows and a shorter pause between wrong-note reports.
type Thresholds struct {
	VolumeThreshold         float64
	IncorrectDelay          time.Duration
	MinCorrectStreak        int
	MinIncorrectStreak      int
	CentsToleranceCorrect   int
	CentsToleranceIncorrect int
}

// ClampSensitivity forces s into [0, 100].
func ClampSensitivity(s int) int {
	return max(MinSensitivity, min(MaxSensitivity, s))
}

// ThresholdsFor maps a sensitivity in [0, 100] to detection thresholds.
// Out-of-range values are clamped.
func ThresholdsFor(s int) Thresholds {
	f := float64(ClampSensitivity(s)) / 100

	delayMs := 4000 - f*3000
	return Thresholds{
		VolumeThreshold:         0.05 - f*0.045,
		IncorrectDelay:          time.Duration(delayMs * float64(time.Millisecond)),
		MinIncorrectStreak:      7 - int(math.Floor(f*5)),
		MinCorrectStreak:        5 - int(math.Floor(f*3)),
		CentsToleranceCorrect:   30 + int(math.Floor(f*20)),
		CentsToleranceIncorrect: 20 + int(math.Floor(f*30)),
	}
}

// SensitivityLabel describes a sensitivity setting for display.
func SensitivityLabel(s int) string {
	switch s = ClampSensitivity(s); {
	case s <= 20:
		return "Very Low (Less Sensitive)"
	case s <= 40:
		return "Low"
	case s <= 60:
		return "Medium"
	case s <= 80:
		return "High"
	}
	return "Very High (More Sensitive)"
}
