// Package calendar exports deduplicated events as an iCalendar feed.
package calendar
