// Package config loads family-events settings from YAML.
//
// Load overlays a file on Default, so a partial file only changes the keys
// it names. Validate reports every problem at once.
package config
