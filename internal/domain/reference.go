package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ReferencePrefixFor returns the date-scoped prefix, e.g. BK20240115
func ReferencePrefixFor(date time.Time) string {
	return ReferencePrefix + date.Format(ReferenceDateFormat)
}

// FormatReference builds BK<YYYYMMDD><4-digit sequence>
func FormatReference(date time.Time, seq int) (string, error) {
	if seq < 1 || seq > MaxReferenceSequence {
		return "", fmt.Errorf("%w: sequence %d out of range", ErrAllocationExhausted, seq)
	}
	return fmt.Sprintf("%s%04d", ReferencePrefixFor(date), seq), nil
}

// ParseReferenceSequence extracts the sequence part of a reference with the given prefix
func ParseReferenceSequence(reference, prefix string) (int, bool) {
	if !strings.HasPrefix(reference, prefix) {
		return 0, false
	}
	tail := reference[len(prefix):]
	if len(tail) != 4 {
		return 0, false
	}
	seq, err := strconv.Atoi(tail)
	if err != nil || seq < 0 {
		return 0, false
	}
	return seq, true
}
