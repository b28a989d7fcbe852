package calendar

import (
	"fmt"
	"strings"
	"time"
)

// Labels holds the display strings used when building views.
type Labels struct {
	Months   [12]string
	Weekdays [7]string // indexed by time.Weekday (Sunday = 0)
	Week     string    // fmt pattern taking the week number
}

var englishLabels = Labels{
	Months: [12]string{"January", "February", "March", "April", "May", "June",
		"July", "August", "September", "October", "November", "December"},
	Weekdays: [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"},
	Week:     "Week %d",
}

var spanishLabels = Labels{
	Months: [12]string{"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
		"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre"},
	Weekdays: [7]string{"Domingo", "Lunes", "Martes", "Miércoles", "Jueves", "Viernes", "Sábado"},
	Week:     "Semana %d",
}

// LabelsFor returns the labels for a language code ("en", "es").
// Unknown codes get English.
func LabelsFor(lang string) Labels {
	switch strings.ToLower(strings.TrimSpace(lang)) {
	case "es", "es-es", "es-mx", "spanish":
		return spanishLabels
	default:
		return englishLabels
	}
}

func (l Labels) Month(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return l.Months[m-1]
}

func (l Labels) Weekday(d time.Weekday) string {
	return l.Weekdays[d%7]
}

func (l Labels) WeekLabel(n int) string {
	return fmt.Sprintf(l.Week, n)
}
