package collect

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"

	"github.com/chromedp/chromedp"

	"fbscrape/internal/event"
)

var base = &url.URL{Scheme: "https", Host: "mbasic.facebook.com"}

var eventPath = regexp.MustCompile(`^/events/[^/]*`)

// NormalizeEventURL reduces an event link to its canonical form
// https://mbasic.facebook.com/events/<id>. Tracking parameters and trailing
// path segments vary between visits and would break the stable snapshot UID.
func NormalizeEventURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("collect: parse event URL %q: %w", raw, err)
	}
	match := eventPath.FindString(u.Path)
	if match == "" {
		return "", fmt.Errorf("collect: %q is not an event URL", raw)
	}
	return base.String() + match, nil
}

// pageURL resolves a club page, given as a path or a full URL, against the
// mbasic host.
func pageURL(page string) (string, error) {
	ref, err := url.Parse(page)
	if err != nil {
		return "", fmt.Errorf("collect: parse page %q: %w", page, err)
	}
	return base.ResolveReference(ref).String(), nil
}

// consentJS submits the cookie consent form when it is present. The form
// replaces the requested page until accepted once per session.
const consentJS = `(() => {
	const consent = document.querySelector('[name="accept_consent"]');
	if (!consent) {
		return false;
	}
	const form = consent.closest('form');
	if (!form) {
		return false;
	}
	const button = form.querySelector('button');
	if (!button) {
		return false;
	}
	button.click();
	return true;
})()`

func (b *Browser) acceptConsent() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		var clicked bool
		if err := chromedp.Evaluate(consentJS, &clicked).Do(ctx); err != nil {
			return err
		}
		if !clicked {
			return nil
		}
		b.log.Debug().Msg("accepted cookie consent")
		return chromedp.Sleep(consentSettle).Do(ctx)
	})
}

// upcomingJS polls the upcoming events list. It resolves to the event link
// targets once any are rendered, to an empty list once the page body signals
// that there are no upcoming events, and to false to keep polling.
const upcomingJS = `(() => {
	const links = document.querySelectorAll('table a[href][aria-label]');
	if (links.length > 0) {
		return Array.from(links, (a) => a.href);
	}
	if (document.querySelector('#pages_msite_body_contents table div')) {
		return [];
	}
	return false;
})()`

// EventURLs navigates to a club's events page and returns the normalized
// URLs of its upcoming events. Links that do not point at an event are
// skipped. An empty result is not an error; pages without upcoming events
// are common.
func (b *Browser) EventURLs(page string) ([]string, error) {
	target, err := pageURL(page)
	if err != nil {
		return nil, err
	}

	ctx, cancel := b.page()
	defer cancel()

	var hrefs []string
	err = chromedp.Run(ctx,
		chromedp.Navigate(target),
		b.acceptConsent(),
		chromedp.Poll(upcomingJS, &hrefs),
	)
	if err != nil {
		return nil, fmt.Errorf("collect: list events on %s: %w", page, err)
	}

	urls := make([]string, 0, len(hrefs))
	for _, href := range hrefs {
		normalized, err := NormalizeEventURL(href)
		if err != nil {
			b.log.Debug().Str("href", href).Msg("skipping non-event link")
			continue
		}
		urls = append(urls, normalized)
	}
	if len(urls) == 0 {
		b.log.Warn().Str("page", page).Msg("no upcoming events found")
		return urls, nil
	}
	b.log.Info().Int("events", len(urls)).Str("page", page).Msg("upcoming events found")
	return urls, nil
}

// summaryJS extracts the event summary rows: the first is the raw date
// phrase, the second, when present, the location.
const summaryJS = `Array.from(
	document.querySelectorAll('#event_summary dt div'),
	(el) => el.innerText,
)`

// detailsJS extracts the free-form description: the first section following
// the event summary in document order. Not every event has one.
const detailsJS = `(() => {
	const summary = document.querySelector('#event_summary');
	if (!summary) {
		return '';
	}
	for (const section of document.querySelectorAll('section')) {
		if (summary.compareDocumentPosition(section) & Node.DOCUMENT_POSITION_FOLLOWING) {
			return section.innerText;
		}
	}
	return '';
})()`

const imageJS = `(() => {
	const img = document.querySelector('#event_header img');
	return img ? img.src : '';
})()`

// Event scrapes one event page. The returned record carries the date phrase
// as displayed; resolving it into timestamps is the caller's business. The
// screenshot of the event table is mandatory, it is the archived evidence of
// what the page said.
func (b *Browser) Event(rawURL string) (*event.Raw, error) {
	normalized, err := NormalizeEventURL(rawURL)
	if err != nil {
		return nil, err
	}

	ctx, cancel := b.page()
	defer cancel()

	raw := &event.Raw{URL: normalized}
	var infos []string
	err = chromedp.Run(ctx,
		chromedp.Navigate(normalized),
		b.acceptConsent(),
		chromedp.WaitVisible("#root > table", chromedp.ByQuery),
		chromedp.Text("#root > table h1", &raw.Title, chromedp.NodeVisible, chromedp.ByQuery),
		chromedp.Evaluate(summaryJS, &infos),
		chromedp.Evaluate(detailsJS, &raw.Details),
		chromedp.Evaluate(imageJS, &raw.ImageURL),
		chromedp.Screenshot("#root > table", &raw.Screenshot, chromedp.NodeVisible, chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("collect: scrape %s: %w", normalized, err)
	}

	if len(infos) == 0 {
		return nil, fmt.Errorf("collect: scrape %s: %w", normalized, errSummaryMissing)
	}
	raw.RawDate = infos[0]
	if len(infos) > 1 {
		raw.Location = infos[1]
	}
	return raw, nil
}

var errSummaryMissing = errors.New("event summary has no rows")
