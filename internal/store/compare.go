package store

import (
	"strings"

	ical "github.com/arran4/golang-ical"

	"fbscrape/internal/ics"
)

// volatileProperty reports whether name is excluded from change detection.
// DTSTAMP changes on every build and the attachment bytes follow the
// screenshot; neither makes an event "different".
func volatileProperty(name string) bool {
	return strings.EqualFold(name, string(ical.ComponentPropertyDtstamp)) ||
		strings.EqualFold(name, string(ics.PropertyAttachment))
}

// unchanged reports whether a and b carry the same durable content. It walks
// the union of both property sets, so a property present on only one side
// counts as a change. Both sides compare in decoded form: the parser
// unescapes text properties on read, and fresh records hold raw text.
func unchanged(a, b *ical.VEvent) bool {
	names := make(map[string]struct{})
	for _, p := range a.Properties {
		names[p.IANAToken] = struct{}{}
	}
	for _, p := range b.Properties {
		names[p.IANAToken] = struct{}{}
	}

	for name := range names {
		if volatileProperty(name) {
			continue
		}
		pa := a.GetProperty(ical.ComponentProperty(name))
		pb := b.GetProperty(ical.ComponentProperty(name))
		if pa == nil || pb == nil {
			return false
		}
		if pa.Value != pb.Value {
			return false
		}
	}
	return true
}

// mergePrior returns a copy of fresh that reuses prior's DTSTAMP and
// attachment. After an unchanged comparison the merged event serializes to
// the exact bytes already on disk.
func mergePrior(fresh, prior *ical.VEvent) *ical.VEvent {
	priorStamp := prior.GetProperty(ical.ComponentPropertyDtstamp)
	priorShot := prior.GetProperty(ics.PropertyAttachment)

	merged := &ical.VEvent{}
	for _, p := range fresh.Properties {
		switch {
		case strings.EqualFold(p.IANAToken, string(ical.ComponentPropertyDtstamp)) && priorStamp != nil:
			merged.Properties = append(merged.Properties, *priorStamp)
		case strings.EqualFold(p.IANAToken, string(ics.PropertyAttachment)):
			// replaced below with prior's attachment, or dropped
		default:
			merged.Properties = append(merged.Properties, p)
		}
	}
	if priorShot != nil {
		merged.Properties = append(merged.Properties, *priorShot)
	}
	return merged
}
