// Package recipient turns raw recipient input into the ordered destination
// list handed to the dispatcher.
package recipient

import (
	"regexp"
	"strings"

	"uk.co.dudmesh.bulksms/internal/model"
)

var lineBreak = regexp.MustCompile(`\r?\n`)

// domestic 0X0 mobile/IP numbers and 020 M2M numbers, with 0 or +81 prefix
var phoneNumber = regexp.MustCompile(`^(\+81|0)(([26789]0[1-9][0-9]{7}$)|(20[1-9][0-9]{10}$))`)

// Parse splits raw text on line breaks, or on commas when the whole input is
// a single line, and trims every entry. Blank entries are dropped; duplicates
// are kept.
func Parse(text string) ([]string, error) {
	lines := lineBreak.Split(text, -1)
	if len(lines) == 1 && strings.Contains(lines[0], ",") {
		lines = strings.Split(lines[0], ",")
	}
	return Normalize(lines)
}

// Normalize trims every entry and drops blanks, preserving order.
func Normalize(entries []string) ([]string, error) {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e = strings.TrimSpace(e); e != "" {
			out = append(out, e)
		}
	}
	if len(out) == 0 {
		return nil, model.NewValidationError("phoneNumbers", "at least one recipient is required")
	}
	return out, nil
}

func IsPhoneNumber(s string) bool {
	return phoneNumber.MatchString(s)
}

// Validate rejects the whole list if any entry is not a phone number. The
// error carries the first few offenders.
func Validate(entries []string) error {
	var invalid []string
	for _, e := range entries {
		if !IsPhoneNumber(e) {
			invalid = append(invalid, e)
		}
	}
	if len(invalid) == 0 {
		return nil
	}
	err := model.NewValidationError("phoneNumbers", "invalid phone numbers")
	if len(invalid) > model.MaxReportedInvalid {
		err.More = len(invalid) - model.MaxReportedInvalid
		invalid = invalid[:model.MaxReportedInvalid]
	}
	err.Invalid = invalid
	return err
}

// Dedupe drops repeated entries, keeping the first occurrence.
func Dedupe(entries []string) []string {
	seen := make(map[string]struct{}, len(entries))
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	return out
}
