// Package suggestion interprets free-text habit suggestions and runs the
// accept/reject workflow that applies them to the daily schedule.
package suggestion

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/julianstephens/gradually/internal/models"
)

// ErrParse is carried by every ParseFailure
var ErrParse = errors.New("unrecognized suggestion line")

// lineRe matches "<habit>: <H:MM:SS> - <reason>"
var lineRe = regexp.MustCompile(`^(.*?):\s*(\d{1,2}:\d{2}:\d{2})\s*-\s*(.*)$`)

// Parsed is one structured suggestion line.
type Parsed struct {
	Habit          string
	SuggestedValue models.TimeOfDay
	Reason         string
}

// ParseFailure records a line that did not match. Reason holds the raw text
// unchanged so malformed model output can be inspected.
type ParseFailure struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

func (f ParseFailure) Error() string {
	return fmt.Sprintf("line %d: %v: %q", f.Line, ErrParse, f.Reason)
}

func (f ParseFailure) Unwrap() error { return ErrParse }

// Parse reads one line. The second result is false when the line does not
// have the expected shape, carries an impossible time, or gives no reason.
func Parse(line string) (Parsed, bool) {
	m := lineRe.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return Parsed{}, false
	}

	habit := strings.TrimSpace(m[1])
	if habit == "" {
		return Parsed{}, false
	}

	value, err := models.ParseTimeOfDay(m[2])
	if err != nil {
		return Parsed{}, false
	}

	reason := strings.TrimSpace(m[3])
	if reason == "" {
		return Parsed{}, false
	}

	return Parsed{Habit: habit, SuggestedValue: value, Reason: reason}, true
}

// ParseLines parses every non-blank line. Elements may themselves contain
// newlines, as model output usually does. Failures never stop the batch.
func ParseLines(raw []string) ([]Parsed, []ParseFailure) {
	var parsed []Parsed
	var failures []ParseFailure

	n := 0
	for _, chunk := range raw {
		for _, line := range strings.Split(chunk, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			n++
			p, ok := Parse(line)
			if !ok {
				failures = append(failures, ParseFailure{Line: n, Reason: line})
				continue
			}
			parsed = append(parsed, p)
		}
	}

	return parsed, failures
}
