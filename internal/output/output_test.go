package output_test

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fbscrape/internal/event"
	"fbscrape/internal/output"
)

var cet = time.FixedZone("CET", 3600)

func concert() *event.Event {
	return &event.Event{
		UID:      "facebook.com-events-111",
		URL:      "https://mbasic.facebook.com/events/111",
		Title:    "Kellerkonzert",
		Start:    time.Date(2022, time.March, 4, 19, 0, 0, 0, cet),
		End:      time.Date(2022, time.March, 5, 0, 0, 0, 0, cet),
		Location: "Keller, Dresden",
		Details:  "Einlass ab 18:30",
		ImageURL: "https://scontent.example/111.jpg",
	}
}

func bareEvent() *event.Event {
	return &event.Event{
		UID:        "facebook.com-events-222",
		URL:        "https://mbasic.facebook.com/events/222?ref=1&src=2",
		Title:      "Tanznacht",
		Start:      time.Date(2022, time.March, 12, 20, 0, 0, 0, cet),
		End:        time.Date(2022, time.March, 13, 0, 0, 0, 0, cet),
		Screenshot: []byte("png"),
	}
}

func TestCalendarStream(t *testing.T) {
	var buf bytes.Buffer
	w := output.NewCalendar(&buf)
	require.NoError(t, w.WriteEvent(concert()))
	require.NoError(t, w.WriteEvent(bareEvent()))
	require.NoError(t, w.Close())

	out := buf.String()
	assert.Contains(t, out, "VERSION:2.0\r\n")
	assert.Contains(t, out, "PRODID:-//fbscrape v")
	assert.Contains(t, out, "METHOD:PUBLISH\r\n")
	assert.Contains(t, out, "UID:facebook.com-events-111\r\n")
	assert.Contains(t, out, "UID:facebook.com-events-222\r\n")
	assert.Contains(t, out, "DTSTART:20220304T180000Z\r\n")
	assert.Contains(t, out, "DTSTAMP:")
}

func TestCalendarOmitsScreenshot(t *testing.T) {
	var buf bytes.Buffer
	w := output.NewCalendar(&buf)
	require.NoError(t, w.WriteEvent(bareEvent()))
	require.NoError(t, w.Close())

	assert.NotContains(t, buf.String(), "ATTACHMENT")
}

func TestJSONStream(t *testing.T) {
	full := concert()
	bare := bareEvent()

	var buf bytes.Buffer
	w := output.NewJSON(&buf)
	require.NoError(t, w.WriteEvent(full))
	require.NoError(t, w.WriteEvent(bare))
	require.NoError(t, w.Close())

	want := fmt.Sprintf(`[
	{
		"url": "https://mbasic.facebook.com/events/111",
		"title": "Kellerkonzert",
		"image": "https://scontent.example/111.jpg",
		"start": %d,
		"end": %d,
		"location": "Keller, Dresden",
		"details": "Einlass ab 18:30"
	},
	{
		"url": "https://mbasic.facebook.com/events/222?ref=1&src=2",
		"title": "Tanznacht",
		"image": null,
		"start": %d,
		"end": %d,
		"location": null
	}
]
`, full.Start.Unix(), full.End.Unix(), bare.Start.Unix(), bare.End.Unix())

	require.Equal(t, want, buf.String())
}

func TestJSONKeepsUnicode(t *testing.T) {
	ev := concert()
	ev.Title = "Bärenzwinger Sommerfest"

	var buf bytes.Buffer
	w := output.NewJSON(&buf)
	require.NoError(t, w.WriteEvent(ev))
	require.NoError(t, w.Close())

	assert.Contains(t, buf.String(), `"title": "Bärenzwinger Sommerfest"`)
	assert.NotContains(t, buf.String(), `\u`)
}

func TestJSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	w := output.NewJSON(&buf)
	require.NoError(t, w.Close())

	require.Equal(t, "[]\n", buf.String())
}
