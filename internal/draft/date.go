package draft

import (
	"strings"
	"time"
	"unicode"
)

const (
	dateLayout  = "02/01/2006"
	minLeadDays = 1
	maxLeadDays = 150
)

// Validation messages shown verbatim to the user.
const (
	msgBadDate     = "Sorry, enter correct data"
	msgTooFarAhead = "Bookings can be placed at most 150 days in advance"
)

// DateState is the validation stage of a session-day's date field.
type DateState int

const (
	// DateEmpty means nothing has been entered yet.
	DateEmpty DateState = iota
	// DatePending means digits have been typed but the field is not yet a
	// full DD/MM/YYYY; semantic validation has not run.
	DatePending
	// DateValid means the date parsed and falls within the booking window.
	DateValid
	// DateInvalid means the date parsed to something outside policy (or not
	// at all); the day's session inputs are locked until corrected.
	DateInvalid
)

// DateCheck is the outcome of re-validating a date field after a keystroke.
type DateCheck struct {
	Input   string // normalized field contents after the keystroke
	State   DateState
	Message string // set only when State == DateInvalid
}

// NormalizeDateInput reshapes raw keystrokes into DD/MM/YYYY progress:
// non-digits are stripped, separators inserted after the day and month, and
// the result truncated to ten characters.
func NormalizeDateInput(raw string) string {
	var digits strings.Builder
	for _, r := range raw {
		if unicode.IsDigit(r) {
			digits.WriteRune(r)
		}
	}
	d := digits.String()

	var out strings.Builder
	for i, r := range d {
		if i == 2 || i == 4 {
			out.WriteByte('/')
		}
		out.WriteRune(r)
		if i == 7 {
			break
		}
	}
	return out.String()
}

// CheckDate normalizes the field and, once it reaches full length, validates
// it against the booking window: strictly future (at least one day ahead)
// and no more than 150 days out. Runs on every keystroke.
func CheckDate(raw string) DateCheck {
	return checkDateAt(raw, time.Now())
}

func checkDateAt(raw string, now time.Time) DateCheck {
	input := NormalizeDateInput(raw)
	if input == "" {
		return DateCheck{Input: input, State: DateEmpty}
	}
	if len(input) < len(dateLayout) {
		return DateCheck{Input: input, State: DatePending}
	}

	date, err := time.Parse(dateLayout, input)
	if err != nil {
		return DateCheck{Input: input, State: DateInvalid, Message: msgBadDate}
	}

	// Day-granularity difference between calendar days. Both sides are
	// rebuilt as UTC midnights so a DST transition in the local zone cannot
	// shorten the interval and shift the window by a day.
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	diffDays := int(date.Sub(today).Hours() / 24)

	if diffDays < minLeadDays {
		return DateCheck{Input: input, State: DateInvalid, Message: msgBadDate}
	}
	if diffDays > maxLeadDays {
		return DateCheck{Input: input, State: DateInvalid, Message: msgTooFarAhead}
	}
	return DateCheck{Input: input, State: DateValid}
}
