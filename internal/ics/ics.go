// Package ics is the iCalendar codec shared by the archive and the stream
// output: it builds the VEVENT wire form of an event record, wraps it in the
// product's calendar envelope, and reads stored snapshots back.
//
// Serialization is deterministic: properties keep a fixed order, timestamps
// are always UTC, and line endings are CRLF on every platform. Writing the
// same record twice yields identical bytes, which the archive's change
// detection depends on.
package ics

import (
	"encoding/base64"
	"errors"
	"io"
	"time"

	ical "github.com/arran4/golang-ical"

	"fbscrape/internal/event"
	"fbscrape/internal/version"
)

// PropertyAttachment is the property name carrying the base64 screenshot in
// archived snapshots. The name predates this implementation and files on
// disk use it, so it stays.
const PropertyAttachment = ical.ComponentProperty("ATTACHMENT")

const dateTimeLayout = "20060102T150405Z"

// NewCalendar returns the calendar envelope shared by snapshots and stream
// output: VERSION 2.0 plus the versioned product identifier.
func NewCalendar() *ical.Calendar {
	cal := ical.NewCalendar()
	cal.SetVersion("2.0")
	cal.SetProductId("-//fbscrape v" + version.Version)
	return cal
}

// NewVEvent builds the wire form of ev stamped at stamp. Property values are
// held raw; the library applies RFC 5545 TEXT escaping exactly once, at
// serialization. The screenshot attachment is only carried by archive
// snapshots; stream output leaves it out.
func NewVEvent(ev *event.Event, stamp time.Time, withScreenshot bool) *ical.VEvent {
	ve := ical.NewEvent(ev.UID)
	ve.SetProperty(ical.ComponentPropertyUrl, ev.URL)
	ve.SetProperty(ical.ComponentPropertyDtstamp, stamp.UTC().Format(dateTimeLayout))
	ve.SetProperty(ical.ComponentPropertyDtStart, ev.Start.UTC().Format(dateTimeLayout))
	ve.SetProperty(ical.ComponentPropertyDtEnd, ev.End.UTC().Format(dateTimeLayout))
	ve.SetProperty(ical.ComponentPropertySummary, ev.Title)
	ve.SetProperty(ical.ComponentPropertyLocation, ev.Location)
	if ev.Details != "" {
		ve.SetProperty(ical.ComponentPropertyDescription, ev.Details)
	}
	if withScreenshot && len(ev.Screenshot) > 0 {
		ve.SetProperty(PropertyAttachment,
			base64.StdEncoding.EncodeToString(ev.Screenshot),
			ical.WithFmtType("image/png"),
			ical.WithEncoding("BASE64"),
			ical.WithValue("BINARY"),
		)
	}
	return ve
}

// Serialize renders cal with CRLF line endings on every platform: the
// RFC 5545 wire form, and the single fixed form snapshot byte identity
// needs. The library's own default follows the host OS.
func Serialize(cal *ical.Calendar) string {
	return cal.Serialize(ical.WithNewLineWindows)
}

// SerializeTo writes cal to w with CRLF line endings.
func SerializeTo(cal *ical.Calendar, w io.Writer) error {
	return cal.SerializeTo(w, ical.WithNewLineWindows)
}

// ParseSnapshot reads one stored snapshot and returns its VEVENT. Snapshots
// hold exactly one event; anything else is treated as corrupt. Text property
// values come back unescaped.
func ParseSnapshot(r io.Reader) (*ical.VEvent, error) {
	cal, err := ical.ParseCalendar(r)
	if err != nil {
		return nil, err
	}
	events := cal.Events()
	if len(events) == 0 {
		return nil, errors.New("calendar has no VEVENT")
	}
	return events[0], nil
}
