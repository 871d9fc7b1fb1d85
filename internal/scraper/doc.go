// Package scraper fetches event listings from configured sources.
//
// Three source types are supported: html pages carrying schema.org Event
// JSON-LD blocks, RSS/Atom feeds (with the RSS event module's ev:startdate and
// ev:location when present) and JSON endpoints returning raw event records.
// Every source has its own request rate limit and retries transient failures
// with exponential backoff; sources are fetched concurrently up to a limit.
package scraper
