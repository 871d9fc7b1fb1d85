// Package location compares free-text event addresses.
package location
