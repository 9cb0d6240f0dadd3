// Package data ships the default grade crosswalk table.
package data

import _ "embed"

// GradesCSV is the bundled crosswalk: an INDEX column followed by one column per scale.
//
//go:embed grades.csv
var GradesCSV []byte
