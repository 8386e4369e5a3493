// Package digest renders the archive's README: a markdown summary of the
// upcoming events written during one run.
package digest

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"fbscrape/internal/event"
)

// German weekday abbreviations, indexed by time.Weekday.
var weekdayNames = [...]string{"So", "Mo", "Di", "Mi", "Do", "Fr", "Sa"}

var paragraphSplit = regexp.MustCompile(`\n{2,}`)

// Render produces the digest for events, keeping only those that have not
// started before now, ordered by start time. Events render in their own
// zone; the digest is for humans in the events' locale, not for machines.
func Render(events []*event.Event, now time.Time) []byte {
	upcoming := make([]*event.Event, 0, len(events))
	for _, ev := range events {
		if !ev.Start.Before(now) {
			upcoming = append(upcoming, ev)
		}
	}
	sort.SliceStable(upcoming, func(i, j int) bool {
		return upcoming[i].Start.Before(upcoming[j].Start)
	})

	var b strings.Builder
	for i, ev := range upcoming {
		if i > 0 {
			b.WriteString("\n---\n\n")
		}
		writeEvent(&b, ev)
	}
	return []byte(b.String())
}

func writeEvent(b *strings.Builder, ev *event.Event) {
	shot := ev.UID + ".png"

	fmt.Fprintf(b, "### %s\n\n", ev.Title)
	fmt.Fprintf(b, "**Beginn:** %s\\\n", formatTime(ev.Start))
	fmt.Fprintf(b, "**Ende:** %s\\\n", formatTime(ev.End))
	fmt.Fprintf(b, "**Ort:** %s\\\n", ev.Location)
	fmt.Fprintf(b, "**Link:** <%s>\\\n", ev.URL)
	fmt.Fprintf(b, "**Screenshot:** [%s](%s)\n", shot, shot)

	if ev.Details != "" {
		b.WriteString("\n")
		writeBlockquote(b, ev.Details)
	}
}

// writeBlockquote renders details as quoted paragraphs: blank lines separate
// paragraphs, single newlines become hard line breaks.
func writeBlockquote(b *strings.Builder, details string) {
	first := true
	for _, para := range paragraphSplit.Split(details, -1) {
		para = strings.Trim(para, "\n")
		if para == "" {
			continue
		}
		if !first {
			b.WriteString(">\n")
		}
		first = false

		lines := strings.Split(para, "\n")
		for i, line := range lines {
			if i < len(lines)-1 {
				fmt.Fprintf(b, "> %s\\\n", line)
			} else {
				fmt.Fprintf(b, "> %s\n", line)
			}
		}
	}
}

// formatTime renders an instant as "Sa 12.03.2022, 20:00+0100" in the
// instant's own zone.
func formatTime(t time.Time) string {
	return weekdayNames[int(t.Weekday())] + t.Format(" 02.01.2006, 15:04-0700")
}
