// Package recordingpath derives the human-navigable archive path of a
// recording from its organization, meeting topic and start time.
package recordingpath

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// TimeLayout is the layout of the time segment of a path.
const TimeLayout = "2006-01-02T15:04"

// RoundTo is the granularity of the time segment.
const RoundTo = 5 * time.Minute

const punctuation = "!@#$%^&*()[]{};:,./<>?\\|`~=_+"

var nonWord = regexp.MustCompile(`[^\p{L}\p{M}\p{N}]+`)

// DerivePath composes organization[/slug][/time]. The topic and time segments
// are dropped when their inputs are empty; the organization is always kept.
func DerivePath(organization, topic, startTime string, loc *time.Location) (string, error) {
	segments := []string{strings.ToLower(organization)}

	if slug := Slugify(organization, topic); slug != "" {
		segments = append(segments, slug)
	}

	if startTime != "" {
		t, err := time.Parse(time.RFC3339, startTime)
		if err != nil {
			return "", fmt.Errorf("parsing start time %q: %w", startTime, err)
		}
		segments = append(segments, RoundStartTime(t, loc).Format(TimeLayout))
	}

	return strings.Join(segments, "/"), nil
}

// Slugify strips the organization name, optionally parenthesized, from the
// topic and turns the rest into a lower-case hyphenated slug. Every run of
// punctuation, whitespace and hyphens becomes one hyphen, including a run at
// the start or end of the topic.
func Slugify(organization, topic string) string {
	if organization != "" {
		orgPattern := regexp.MustCompile(`(?i)\s*\(?` + regexp.QuoteMeta(organization) + `\)?\s*`)
		topic = orgPattern.ReplaceAllString(topic, "")
	}

	topic = strings.Map(func(r rune) rune {
		if strings.ContainsRune(punctuation, r) {
			return ' '
		}
		return r
	}, topic)

	// Hyphens left at either end by the collapse are kept so paths match
	// those already archived.
	topic = nonWord.ReplaceAllString(topic, "-")
	return strings.ToLower(strings.TrimSpace(topic))
}

// RoundStartTime projects t into loc and rounds it to the nearest five
// minutes. Ties on the whole-day second count round up.
func RoundStartTime(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)

	step := int(RoundTo / time.Second)
	seconds := t.Hour()*3600 + t.Minute()*60 + t.Second()
	rounded := (seconds + step/2) / step * step

	return t.Add(time.Duration(rounded-seconds)*time.Second - time.Duration(t.Nanosecond()))
}
