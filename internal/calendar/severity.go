package calendar

import "fmt"

// Severity grades how far a platform is from its weekly quota.
type Severity int

const (
	// SeverityNone means nothing is planned at all.
	SeverityNone Severity = iota
	// SeverityLow means some progress, at most half of the quota.
	SeverityLow
	// SeverityHigh means more than half of the quota is planned.
	SeverityHigh
	// SeverityComplete means the quota is met or exceeded.
	SeverityComplete
)

// Classify grades a (planned, required) pair. The rules apply in order:
// nothing planned, quota met, more than half, otherwise low. The half
// comparison is done as 2*planned > required so a zero quota never divides.
func Classify(planned, required int) Severity {
	switch {
	case planned == 0:
		return SeverityNone
	case planned >= required:
		return SeverityComplete
	case 2*planned > required:
		return SeverityHigh
	default:
		return SeverityLow
	}
}

func (s Severity) String() string {
	switch s {
	case SeverityNone:
		return "none"
	case SeverityLow:
		return "low"
	case SeverityHigh:
		return "high"
	case SeverityComplete:
		return "complete"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// Color is the display hint for s: red for no progress, blue for more than
// half, green for done, empty for the default text color.
func (s Severity) Color() string {
	switch s {
	case SeverityNone:
		return "red"
	case SeverityHigh:
		return "blue"
	case SeverityComplete:
		return "green"
	default:
		return ""
	}
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(b []byte) error {
	for _, c := range []Severity{SeverityNone, SeverityLow, SeverityHigh, SeverityComplete} {
		if c.String() == string(b) {
			*s = c
			return nil
		}
	}
	return fmt.Errorf("calendar: unknown severity %q", string(b))
}
