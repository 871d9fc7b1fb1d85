// Package similarity implements the text normalization and string
// similarity measures used to compare event titles and addresses.
//
// Normalize folds case, accents and punctuation so that listings typed by
// different sources compare equal. Every measure returns a score in [0, 1].
package similarity
