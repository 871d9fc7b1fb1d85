package scraper

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sheridangray/family-event-planner/internal/event"
)

// parseJSONLD extracts schema.org Event objects from the JSON-LD blocks of
// an HTML page. Malformed blocks are skipped.
func parseJSONLD(r io.Reader) ([]*event.Raw, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	raws := make([]*event.Raw, 0)
	doc.Find(`script[type="application/ld+json"]`).Each(func(i int, sel *goquery.Selection) {
		var node interface{}
		if err := json.Unmarshal([]byte(strings.TrimSpace(sel.Text())), &node); err != nil {
			return
		}
		for _, obj := range collectEvents(node) {
			raws = append(raws, schemaEvent(obj))
		}
	})

	return raws, nil
}

// collectEvents walks a JSON-LD tree and returns every Event node
func collectEvents(node interface{}) []map[string]interface{} {
	var found []map[string]interface{}

	switch v := node.(type) {
	case []interface{}:
		for _, item := range v {
			found = append(found, collectEvents(item)...)
		}
	case map[string]interface{}:
		if isEventType(v["@type"]) {
			found = append(found, v)
		}
		if graph, ok := v["@graph"]; ok {
			found = append(found, collectEvents(graph)...)
		}
	}

	return found
}

// isEventType matches Event and its subtypes such as ChildrensEvent
func isEventType(t interface{}) bool {
	switch v := t.(type) {
	case string:
		return strings.HasSuffix(v, "Event")
	case []interface{}:
		for _, item := range v {
			if isEventType(item) {
				return true
			}
		}
	}
	return false
}

func schemaEvent(obj map[string]interface{}) *event.Raw {
	raw := &event.Raw{
		Title:       text(obj["name"]),
		StartDate:   event.FlexString(text(obj["startDate"])),
		Description: text(obj["description"]),
		ImageURL:    imageURL(obj["image"]),
	}

	loc := place(obj["location"])
	if loc != (event.Location{}) {
		raw.Location = &loc
	}

	price, offerURL, ok := offers(obj["offers"])
	if ok {
		amount := event.Amount(price)
		raw.Cost = &amount
	}
	raw.RegistrationURL = offerURL
	if raw.RegistrationURL == "" {
		raw.RegistrationURL = text(obj["url"])
	}

	raw.AgeRange = parseAgeRange(text(obj["typicalAgeRange"]))

	return raw
}

func text(v interface{}) string {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	}
	return ""
}

func first(v interface{}) interface{} {
	if list, ok := v.([]interface{}); ok {
		if len(list) == 0 {
			return nil
		}
		return list[0]
	}
	return v
}

func imageURL(v interface{}) string {
	switch img := first(v).(type) {
	case string:
		return strings.TrimSpace(img)
	case map[string]interface{}:
		return text(img["url"])
	}
	return ""
}

func place(v interface{}) event.Location {
	switch p := first(v).(type) {
	case string:
		return event.Location{Name: strings.TrimSpace(p)}
	case map[string]interface{}:
		loc := event.Location{Name: text(p["name"])}
		switch addr := p["address"].(type) {
		case string:
			loc.Address = strings.TrimSpace(addr)
		case map[string]interface{}:
			loc.City = text(addr["addressLocality"])
			parts := []string{text(addr["streetAddress"]), loc.City, text(addr["addressRegion"]), text(addr["postalCode"])}
			loc.Address = joinNonEmpty(parts, ", ")
		}
		return loc
	}
	return event.Location{}
}

// offers returns the lowest listed price and the first offer URL
func offers(v interface{}) (float64, string, bool) {
	var list []interface{}
	switch o := v.(type) {
	case []interface{}:
		list = o
	case map[string]interface{}:
		list = []interface{}{o}
	default:
		return 0, "", false
	}

	lowest := math.Inf(1)
	url := ""
	for _, item := range list {
		offer, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		if url == "" {
			url = text(offer["url"])
		}
		var price float64
		switch p := offer["price"].(type) {
		case float64:
			price = p
		case string:
			price = event.ParseCost(p)
		default:
			continue
		}
		lowest = math.Min(lowest, price)
	}

	if math.IsInf(lowest, 1) {
		return 0, url, false
	}
	return lowest, url, true
}

// openAgeMax closes ranges like "7-" that have no upper bound
const openAgeMax = 18

// parseAgeRange reads schema.org typicalAgeRange values like "3-5" or "7-"
func parseAgeRange(s string) *event.AgeRange {
	if s == "" {
		return nil
	}
	lo, hi, found := strings.Cut(s, "-")
	lower, err := strconv.ParseFloat(strings.TrimSpace(lo), 64)
	if err != nil {
		return nil
	}
	if !found {
		return &event.AgeRange{Min: lower, Max: lower}
	}
	upper, err := strconv.ParseFloat(strings.TrimSpace(hi), 64)
	if err != nil {
		upper = math.Max(lower, openAgeMax)
	}
	return &event.AgeRange{Min: lower, Max: upper}
}

func joinNonEmpty(parts []string, sep string) string {
	kept := parts[:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
