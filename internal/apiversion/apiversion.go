// Package apiversion compares the dotted REST API version strings a
// FlashArray reports. Every feature gate in the reconcilers goes through
// this package rather than comparing strings ad hoc.
package apiversion

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse validates a dotted version string and returns its numeric segments.
func Parse(s string) ([]int, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil, fmt.Errorf("version string is empty")
	}

	parts := strings.Split(trimmed, ".")
	segments := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid version segment %q in %q", part, s)
		}
		segments = append(segments, n)
	}
	return segments, nil
}

// IsValid reports whether s parses as a dotted version.
func IsValid(s string) bool {
	_, err := Parse(s)
	return err == nil
}

// Compare returns -1, 0, or 1 as a is less than, equal to, or greater
// than b. Missing segments compare as zero, so "2.4" equals "2.4.0".
// Unparseable segments compare as zero.
func Compare(a, b string) int {
	as := lenientSegments(a)
	bs := lenientSegments(b)

	n := len(as)
	if len(bs) > n {
		n = len(bs)
	}

	for i := 0; i < n; i++ {
		av, bv := 0, 0
		if i < len(as) {
			av = as[i]
		}
		if i < len(bs) {
			bv = bs[i]
		}
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
	}
	return 0
}

// AtLeast reports whether have satisfies the minimum version want.
func AtLeast(have, want string) bool {
	return Compare(have, want) >= 0
}

func lenientSegments(s string) []int {
	parts := strings.Split(strings.TrimSpace(s), ".")
	segments := make([]int, len(parts))
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			n = 0
		}
		segments[i] = n
	}
	return segments
}

// Max returns the highest version in versions, or "" for an empty slice.
func Max(versions []string) string {
	best := ""
	for _, v := range versions {
		if !IsValid(v) {
			continue
		}
		if best == "" || Compare(v, best) > 0 {
			best = v
		}
	}
	return best
}
