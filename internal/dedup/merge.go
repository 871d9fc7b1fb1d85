package dedup

import (
	"math"
	"time"
	"unicode/utf8"

	"github.com/sheridangray/family-event-planner/internal/event"
)

// materialAgeDifference is the age-range similarity below which two ranges
// are treated as describing different audiences
const materialAgeDifference = 0.8

// Merge folds duplicate into primary. Primary is enriched in place and
// never loses information; duplicate is not modified.
//
// A duplicate that is itself a merged record carries its whole merge count
// and listing history over, so MergeCount stays one more than the number of
// listings folded in.
func Merge(primary, duplicate *event.Event, now time.Time) {
	mergeSources(primary, duplicate)
	enrich(primary, duplicate)

	if primary.MergeCount < 1 {
		primary.MergeCount = 1
	}
	primary.MergeCount += max(duplicate.MergeCount, 1)
	primary.LastMerged = now

	primary.MergedFrom = appendRef(primary.MergedFrom, duplicate.Ref())
	for _, ref := range duplicate.MergedFrom {
		primary.MergedFrom = appendRef(primary.MergedFrom, ref)
	}
}

// Refresh applies a new copy of a listing the primary already holds. Fields
// are enriched as in Merge but nothing is counted.
func Refresh(primary, listing *event.Event) {
	enrich(primary, listing)
}

func enrich(primary, duplicate *event.Event) {
	if utf8.RuneCountInString(duplicate.Description) > utf8.RuneCountInString(primary.Description) {
		primary.Description = duplicate.Description
	}

	if primary.ImageURL == "" && duplicate.ImageURL != "" {
		primary.ImageURL = duplicate.ImageURL
	}

	mergeRegistration(primary, duplicate)

	if utf8.RuneCountInString(duplicate.Location.Address) > utf8.RuneCountInString(primary.Location.Address) {
		mergeLocation(&primary.Location, duplicate.Location)
	}

	primary.Cost = math.Min(primary.Cost, duplicate.Cost)

	mergeAgeRange(primary, duplicate)
}

func mergeSources(primary, duplicate *event.Event) {
	if len(primary.Sources) == 0 && primary.Source != "" {
		primary.Sources = []string{primary.Source}
	}

	primary.Sources = appendUnique(primary.Sources, duplicate.Source)
	for _, src := range duplicate.Sources {
		primary.Sources = appendUnique(primary.Sources, src)
	}
}

// mergeRegistration never replaces the primary URL, even an empty one;
// every URL that differs from it is kept as an alternate
func mergeRegistration(primary, duplicate *event.Event) {
	urls := append([]string{duplicate.RegistrationURL}, duplicate.AlternateURLs...)
	for _, u := range urls {
		if u == "" || u == primary.RegistrationURL {
			continue
		}
		primary.AlternateURLs = appendUnique(primary.AlternateURLs, u)
	}
}

// mergeLocation overlays the non-empty fields of dup onto primary
func mergeLocation(primary *event.Location, dup event.Location) {
	if dup.Name != "" {
		primary.Name = dup.Name
	}
	if dup.Address != "" {
		primary.Address = dup.Address
	}
	if dup.City != "" {
		primary.City = dup.City
	}
}

// mergeAgeRange keeps the narrower range when the two differ materially
func mergeAgeRange(primary, duplicate *event.Event) {
	if duplicate.AgeRange == nil {
		return
	}
	if primary.AgeRange == nil {
		r := *duplicate.AgeRange
		primary.AgeRange = &r
		return
	}
	if AgeRangeSimilarity(primary.AgeRange, duplicate.AgeRange) >= materialAgeDifference {
		return
	}
	if duplicate.AgeRange.Span() < primary.AgeRange.Span() {
		r := *duplicate.AgeRange
		primary.AgeRange = &r
	}
}

func appendUnique(list []string, value string) []string {
	if value == "" {
		return list
	}
	for _, v := range list {
		if v == value {
			return list
		}
	}
	return append(list, value)
}

func appendRef(list []event.ListingRef, ref event.ListingRef) []event.ListingRef {
	if ref.ID == "" {
		return list
	}
	for _, r := range list {
		if r == ref {
			return list
		}
	}
	return append(list, ref)
}
