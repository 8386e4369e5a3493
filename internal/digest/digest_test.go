package digest_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fbscrape/internal/digest"
	"fbscrape/internal/event"
)

var (
	now = time.Date(2022, time.March, 1, 12, 0, 0, 0, time.UTC)
	cet = time.FixedZone("CET", 3600)
)

func TestRenderDigest(t *testing.T) {
	events := []*event.Event{
		{
			UID:      "facebook.com-events-222",
			URL:      "https://mbasic.facebook.com/events/222",
			Title:    "Tanznacht",
			Start:    time.Date(2022, time.March, 12, 20, 0, 0, 0, cet),
			End:      time.Date(2022, time.March, 13, 0, 0, 0, 0, cet),
			Location: "Club WU5",
			Details:  "Erste Zeile\nZweite Zeile\n\nNeuer Absatz",
		},
		{
			UID:      "facebook.com-events-111",
			URL:      "https://mbasic.facebook.com/events/111",
			Title:    "Kellerkonzert",
			Start:    time.Date(2022, time.March, 4, 19, 0, 0, 0, cet),
			End:      time.Date(2022, time.March, 5, 0, 0, 0, 0, cet),
			Location: "Keller",
		},
	}

	want := `### Kellerkonzert

**Beginn:** Fr 04.03.2022, 19:00+0100\
**Ende:** Sa 05.03.2022, 00:00+0100\
**Ort:** Keller\
**Link:** <https://mbasic.facebook.com/events/111>\
**Screenshot:** [facebook.com-events-111.png](facebook.com-events-111.png)

---

### Tanznacht

**Beginn:** Sa 12.03.2022, 20:00+0100\
**Ende:** So 13.03.2022, 00:00+0100\
**Ort:** Club WU5\
**Link:** <https://mbasic.facebook.com/events/222>\
**Screenshot:** [facebook.com-events-222.png](facebook.com-events-222.png)

> Erste Zeile\
> Zweite Zeile
>
> Neuer Absatz
`

	require.Equal(t, want, string(digest.Render(events, now)))
}

func TestRenderKeepsEventZone(t *testing.T) {
	cest := time.FixedZone("CEST", 2*3600)
	events := []*event.Event{
		{
			UID:   "facebook.com-events-333",
			URL:   "https://mbasic.facebook.com/events/333",
			Title: "Sommerfest",
			Start: time.Date(2022, time.June, 18, 21, 0, 0, 0, cest),
			End:   time.Date(2022, time.June, 19, 0, 0, 0, 0, cest),
		},
	}

	out := string(digest.Render(events, now))
	assert.Contains(t, out, "**Beginn:** Sa 18.06.2022, 21:00+0200\\\n")
	assert.Contains(t, out, "**Ende:** So 19.06.2022, 00:00+0200\\\n")
}

func TestRenderFiltersPastEvents(t *testing.T) {
	events := []*event.Event{
		{
			UID:   "facebook.com-events-old",
			URL:   "https://mbasic.facebook.com/events/old",
			Title: "Vergangen",
			Start: now.Add(-time.Hour),
			End:   now,
		},
		{
			UID:   "facebook.com-events-edge",
			URL:   "https://mbasic.facebook.com/events/edge",
			Title: "Grenzfall",
			Start: now,
			End:   now.Add(4 * time.Hour),
		},
	}

	out := string(digest.Render(events, now))
	assert.NotContains(t, out, "Vergangen")
	assert.Contains(t, out, "### Grenzfall")
}

func TestRenderOrdersByStart(t *testing.T) {
	mk := func(id string, start time.Time) *event.Event {
		return &event.Event{
			UID:   "facebook.com-events-" + id,
			URL:   "https://mbasic.facebook.com/events/" + id,
			Title: "Event " + id,
			Start: start,
			End:   start.Add(2 * time.Hour),
		}
	}
	events := []*event.Event{
		mk("late", now.Add(72*time.Hour)),
		mk("early", now.Add(24*time.Hour)),
		mk("mid", now.Add(48*time.Hour)),
	}

	out := string(digest.Render(events, now))
	early := strings.Index(out, "### Event early")
	mid := strings.Index(out, "### Event mid")
	late := strings.Index(out, "### Event late")
	require.NotEqual(t, -1, early)
	require.NotEqual(t, -1, mid)
	require.NotEqual(t, -1, late)
	assert.Less(t, early, mid)
	assert.Less(t, mid, late)
}

func TestRenderCollapsesBlankRuns(t *testing.T) {
	events := []*event.Event{
		{
			UID:     "facebook.com-events-444",
			URL:     "https://mbasic.facebook.com/events/444",
			Title:   "Lesung",
			Start:   now.Add(time.Hour),
			End:     now.Add(3 * time.Hour),
			Details: "Absatz eins\n\n\n\nAbsatz zwei\n\n",
		},
	}

	out := string(digest.Render(events, now))
	assert.Contains(t, out, "> Absatz eins\n>\n> Absatz zwei\n")
	assert.NotContains(t, out, "> \n")
	assert.True(t, strings.HasSuffix(out, "> Absatz zwei\n"))
}

func TestRenderEmpty(t *testing.T) {
	assert.Empty(t, digest.Render(nil, now))

	past := []*event.Event{
		{
			UID:   "facebook.com-events-555",
			URL:   "https://mbasic.facebook.com/events/555",
			Title: "Vorbei",
			Start: now.Add(-48 * time.Hour),
			End:   now.Add(-46 * time.Hour),
		},
	}
	assert.Empty(t, digest.Render(past, now))
}
