package models

import (
	"fmt"
	"strings"
)

// PrimaryIndexPolicy picks one index out of the ascending list a grade maps to.
type PrimaryIndexPolicy int

const (
	Lowest PrimaryIndexPolicy = iota
	Middle
	Highest
)

// String returns string representation of the policy
func (p PrimaryIndexPolicy) String() string {
	switch p {
	case Lowest:
		return "LOWEST"
	case Middle:
		return "MIDDLE"
	case Highest:
		return "HIGHEST"
	default:
		return "UNKNOWN"
	}
}

// ParsePrimaryIndexPolicy parses LOWEST, MIDDLE or HIGHEST (case-insensitive).
// An empty string yields the default, LOWEST.
func ParsePrimaryIndexPolicy(s string) (PrimaryIndexPolicy, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "LOWEST":
		return Lowest, nil
	case "MIDDLE":
		return Middle, nil
	case "HIGHEST":
		return Highest, nil
	default:
		return Lowest, &ValidationError{
			Field:   "source_policy",
			Value:   s,
			Message: fmt.Sprintf("invalid primary index policy %q, expected LOWEST, MIDDLE or HIGHEST", s),
		}
	}
}

// TargetVariantPolicy picks one textual variant out of a target cell.
type TargetVariantPolicy int

const (
	First TargetVariantPolicy = iota
	MiddleVariant
	Last
)

// String returns string representation of the policy
func (p TargetVariantPolicy) String() string {
	switch p {
	case First:
		return "FIRST"
	case MiddleVariant:
		return "MIDDLE"
	case Last:
		return "LAST"
	default:
		return "UNKNOWN"
	}
}

// ParseTargetVariantPolicy parses FIRST, MIDDLE or LAST (case-insensitive).
// An empty string yields the default, FIRST.
func ParseTargetVariantPolicy(s string) (TargetVariantPolicy, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "FIRST":
		return First, nil
	case "MIDDLE":
		return MiddleVariant, nil
	case "LAST":
		return Last, nil
	default:
		return First, &ValidationError{
			Field:   "target_policy",
			Value:   s,
			Message: fmt.Sprintf("invalid target variant policy %q, expected FIRST, MIDDLE or LAST", s),
		}
	}
}

// lowerMiddle is the position used by both MIDDLE policies: floor((n-1)/2).
func lowerMiddle(n int) int {
	return (n - 1) / 2
}

// PickIndex applies the policy to an ascending, non-empty index list.
func (p PrimaryIndexPolicy) PickIndex(sorted []int) int {
	switch p {
	case Highest:
		return sorted[len(sorted)-1]
	case Middle:
		return sorted[lowerMiddle(len(sorted))]
	default:
		return sorted[0]
	}
}

// PickVariant applies the policy to a non-empty variant list in cell order.
func (p TargetVariantPolicy) PickVariant(variants []string) string {
	switch p {
	case Last:
		return variants[len(variants)-1]
	case MiddleVariant:
		return variants[lowerMiddle(len(variants))]
	default:
		return variants[0]
	}
}
