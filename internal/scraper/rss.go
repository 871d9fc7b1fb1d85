package scraper

import (
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/sheridangray/family-event-planner/internal/event"
)

// parseFeed maps RSS/Atom items to raw events. The event date comes from the
// RSS event module (ev:startdate) when present, else the item's publish date.
func parseFeed(body []byte, sourceName string) ([]*event.Raw, error) {
	feed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}

	raws := make([]*event.Raw, 0, len(feed.Items))
	for _, item := range feed.Items {
		raw := &event.Raw{
			Title:           strings.TrimSpace(item.Title),
			Description:     stripHTML(item.Description),
			RegistrationURL: strings.TrimSpace(item.Link),
		}

		if item.GUID != "" {
			raw.ID = event.GenerateID(sourceName, item.GUID, "")
		}

		if start := extensionValue(item, "ev", "startdate"); start != "" {
			raw.StartDate = event.FlexString(start)
		} else if item.PublishedParsed != nil {
			raw.StartDate = event.FlexString(item.PublishedParsed.UTC().Format(time.RFC3339))
		}

		if loc := extensionValue(item, "ev", "location"); loc != "" {
			raw.Address = loc
		}

		raw.ImageURL = itemImage(item)
		raws = append(raws, raw)
	}

	return raws, nil
}

func extensionValue(item *gofeed.Item, prefix, name string) string {
	if item.Extensions == nil {
		return ""
	}
	values := item.Extensions[prefix][name]
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0].Value)
}

func itemImage(item *gofeed.Item) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	for _, enc := range item.Enclosures {
		if strings.HasPrefix(enc.Type, "image/") {
			return enc.URL
		}
	}
	return ""
}

// stripHTML reduces an HTML fragment to its text
func stripHTML(fragment string) string {
	if !strings.ContainsRune(fragment, '<') {
		return strings.TrimSpace(fragment)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
