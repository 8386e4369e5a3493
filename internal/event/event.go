// Package event defines the event record flowing through the pipeline: the
// raw shape extracted from an event page and the resolved form consumed by
// the archive and the stream writers.
package event

import (
	"fmt"
	"strings"
	"time"
)

// canonicalPrefix is the scheme+host prefix every canonical event URL starts
// with. UID derivation strips exactly this prefix.
const canonicalPrefix = "https://mbasic."

// Raw is an event record as extracted from an event page, before the date
// text has been resolved.
type Raw struct {
	// URL is the canonical event URL.
	URL   string
	Title string

	// RawDate is the free-text German date/time line from the page,
	// e.g. "Heute um 20:00 UTC+0100".
	RawDate string

	// Optional page content.
	Location   string
	Details    string
	ImageURL   string
	Screenshot []byte // PNG capture of the event page
}

// Event is a fully resolved event record.
type Event struct {
	UID   string
	URL   string
	Title string

	// Start and End carry the zone of the page's date text. End is always
	// strictly after Start.
	Start time.Time
	End   time.Time

	Location   string
	Details    string
	ImageURL   string
	Screenshot []byte
}

// New assembles the resolved record for raw with the given start/end pair.
func New(raw *Raw, start, end time.Time) *Event {
	return &Event{
		UID:        UID(raw.URL),
		URL:        raw.URL,
		Title:      raw.Title,
		Start:      start,
		End:        end,
		Location:   raw.Location,
		Details:    raw.Details,
		ImageURL:   raw.ImageURL,
		Screenshot: raw.Screenshot,
	}
}

// UID derives the stable snapshot identifier for a canonical event URL: the
// canonical prefix is stripped and path separators become '-', leaving a
// string that doubles as a file name. Callers must normalize the URL first;
// passing a non-canonical URL is a programming error and panics.
func UID(url string) string {
	if !strings.HasPrefix(url, canonicalPrefix) {
		panic(fmt.Sprintf("event: URL %q is not canonical", url))
	}
	return strings.ReplaceAll(url[len(canonicalPrefix):], "/", "-")
}
