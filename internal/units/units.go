// Package units converts the human-readable size and rate strings accepted
// in plan files into the numeric values the array API expects.
package units

import (
	"strconv"
	"strings"
)

const (
	kibibyte int64 = 1024
	mebibyte       = kibibyte * 1024
	gibibyte       = mebibyte * 1024
	tebibyte       = gibibyte * 1024
	pebibyte       = tebibyte * 1024
)

var sizeMultipliers = map[byte]int64{
	'K': kibibyte,
	'M': mebibyte,
	'G': gibibyte,
	'T': tebibyte,
	'P': pebibyte,
}

var countMultipliers = map[byte]int64{
	'K': 1_000,
	'M': 1_000_000,
}

// ParseSize converts a byte-size string of the form <int><unit> with unit
// in K/M/G/T/P into bytes. Malformed input, including a missing or
// unsupported unit, parses to 0.
func ParseSize(s string) int64 {
	return parse(s, sizeMultipliers)
}

// ParseCount converts a rate string of the form <int><unit> with unit in
// K/M into a plain count (IOPS, bandwidth in multiples of 1000).
// Malformed input parses to 0.
func ParseCount(s string) int64 {
	return parse(s, countMultipliers)
}

func parse(s string, multipliers map[byte]int64) int64 {
	trimmed := strings.TrimSpace(s)
	if len(trimmed) < 2 {
		return 0
	}

	unit := trimmed[len(trimmed)-1]
	if unit >= 'a' && unit <= 'z' {
		unit -= 'a' - 'A'
	}
	multiplier, ok := multipliers[unit]
	if !ok {
		return 0
	}

	n, err := strconv.ParseInt(trimmed[:len(trimmed)-1], 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n * multiplier
}
