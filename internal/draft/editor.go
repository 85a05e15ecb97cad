package draft

import (
	"time"

	"github.com/caterlink/api/internal/catalog"
)

// EditorSession is one session row as edited on screen. Dishes are entered as
// free-form newline-delimited text and parsed at finalization.
type EditorSession struct {
	Name           string
	Time           string
	NumberOfPeople int32
	ServingType    string
	MenuNotes      string
}

// Day is one event day with its date field and sessions.
type Day struct {
	Date     DateCheck
	Sessions []EditorSession
}

// Editor is the day/session editing state machine. A new editor starts with
// one day holding one empty session; both minimums are maintained by the
// removal rules.
type Editor struct {
	Days []Day
}

// NewEditor returns an editor with a single empty day.
func NewEditor() *Editor {
	return &Editor{Days: []Day{{Sessions: []EditorSession{{}}}}}
}

// SetDate re-runs date validation for the day after a keystroke.
// Out-of-range day indexes are ignored.
func (e *Editor) SetDate(day int, raw string) {
	if day < 0 || day >= len(e.Days) {
		return
	}
	e.Days[day].Date = CheckDate(raw)
}

// DayLocked reports whether the day's session inputs are disabled because its
// date failed validation.
func (e *Editor) DayLocked(day int) bool {
	if day < 0 || day >= len(e.Days) {
		return false
	}
	return e.Days[day].Date.State == DateInvalid
}

// AddDay appends a new day with one default empty session.
func (e *Editor) AddDay() {
	e.Days = append(e.Days, Day{Sessions: []EditorSession{{}}})
}

// AddSession appends a new empty session to the day.
func (e *Editor) AddSession(day int) {
	if day < 0 || day >= len(e.Days) {
		return
	}
	e.Days[day].Sessions = append(e.Days[day].Sessions, EditorSession{})
}

// RemoveDay drops the day at the index. Removing the last remaining day is a
// no-op: the editor always keeps at least one.
func (e *Editor) RemoveDay(day int) {
	if day < 0 || day >= len(e.Days) || len(e.Days) == 1 {
		return
	}
	e.Days = append(e.Days[:day], e.Days[day+1:]...)
}

// RemoveSession drops a session from the day. Removing a day's last remaining
// session is a no-op: every day keeps at least one.
func (e *Editor) RemoveSession(day, session int) {
	if day < 0 || day >= len(e.Days) {
		return
	}
	sessions := e.Days[day].Sessions
	if session < 0 || session >= len(sessions) || len(sessions) == 1 {
		return
	}
	e.Days[day].Sessions = append(sessions[:session], sessions[session+1:]...)
}

// Finalize flattens the editor into ordered session drafts, parsing each
// session's menu notes against the catalog. Day order then session order is
// preserved; sessions share their day's date. Advisories collected during
// parsing (duplicate dish lines) are returned alongside.
func (e *Editor) Finalize(c *catalog.Catalog) ([]SessionDraft, []string) {
	var sessions []SessionDraft
	var advisories []string

	for _, day := range e.Days {
		for _, es := range day.Sessions {
			items, adv := ParseMenuNotes(c, es.MenuNotes, time.Now().UnixMilli())
			advisories = append(advisories, adv...)
			sessions = append(sessions, SessionDraft{
				SessionName:    es.Name,
				Date:           day.Date.Input,
				Time:           es.Time,
				NumberOfPeople: es.NumberOfPeople,
				ServingType:    es.ServingType,
				MenuItems:      items,
			})
		}
	}
	return sessions, advisories
}
