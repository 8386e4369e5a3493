// Package output streams scraped events to a single file, either as an
// iCalendar feed or as a JSON array.
package output

import (
	"encoding/json"
	"io"
	"time"

	ical "github.com/arran4/golang-ical"

	"fbscrape/internal/event"
	"fbscrape/internal/ics"
)

// Writer receives events one by one and renders them on Close.
type Writer interface {
	WriteEvent(ev *event.Event) error
	Close() error
}

// Calendar collects events into one VCALENDAR published with METHOD:PUBLISH.
// Screenshots stay out of the feed; they live in the archive only.
type Calendar struct {
	w   io.Writer
	cal *ical.Calendar
}

// NewCalendar returns a Writer rendering events as an iCalendar feed on w.
func NewCalendar(w io.Writer) *Calendar {
	cal := ics.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	return &Calendar{w: w, cal: cal}
}

func (c *Calendar) WriteEvent(ev *event.Event) error {
	c.cal.AddVEvent(ics.NewVEvent(ev, time.Now().UTC(), false))
	return nil
}

func (c *Calendar) Close() error {
	return ics.SerializeTo(c.cal, c.w)
}

// JSON collects events into a JSON array rendered on Close. Absent image and
// location fields come out as null, absent details are omitted entirely.
type JSON struct {
	w      io.Writer
	events []jsonEvent
}

type jsonEvent struct {
	URL      string  `json:"url"`
	Title    string  `json:"title"`
	Image    *string `json:"image"`
	Start    int64   `json:"start"`
	End      int64   `json:"end"`
	Location *string `json:"location"`
	Details  string  `json:"details,omitempty"`
}

// NewJSON returns a Writer rendering events as a JSON array on w.
func NewJSON(w io.Writer) *JSON {
	return &JSON{w: w, events: []jsonEvent{}}
}

func (j *JSON) WriteEvent(ev *event.Event) error {
	j.events = append(j.events, jsonEvent{
		URL:      ev.URL,
		Title:    ev.Title,
		Image:    orNull(ev.ImageURL),
		Start:    ev.Start.Unix(),
		End:      ev.End.Unix(),
		Location: orNull(ev.Location),
		Details:  ev.Details,
	})
	return nil
}

func (j *JSON) Close() error {
	enc := json.NewEncoder(j.w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "\t")
	return enc.Encode(j.events)
}

func orNull(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
