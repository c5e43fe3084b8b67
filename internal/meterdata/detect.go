package meterdata

import (
	"bufio"
	"io"
	"strings"
	"unicode"

	apperrors "nemcli/internal/errors"
)

// DetectFormat inspects the leading lines of a file and decides which
// parser applies. Generic-CSV recognition is preferred when its required
// columns are present in the header row; otherwise NEM12 structural
// markers are checked. An unrecognizable file is a FormatError.
func DetectFormat(r io.Reader) (Format, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lines []string
	for scanner.Scan() && len(lines) < 10 {
		line := strings.TrimSpace(scanner.Text())
		if len(lines) == 0 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return FormatUnknown, apperrors.WrapFormatError("reading input", err)
	}
	if len(lines) == 0 {
		return FormatUnknown, apperrors.NewFormatError("file is empty")
	}

	first := lines[0]

	// A header row starting with a letter may be a generic interval CSV.
	if unicode.IsLetter(rune(first[0])) && isGenericHeader(first) {
		return FormatGeneric, nil
	}

	// NEM12: a leading 100 record, or 200/300 markers near the top.
	if strings.HasPrefix(first, "100,") || first == "100" {
		return FormatNEM12, nil
	}
	for _, line := range lines {
		if strings.HasPrefix(line, "200,") || strings.HasPrefix(line, "300,") {
			return FormatNEM12, nil
		}
	}

	return FormatUnknown, apperrors.NewFormatError("file matches neither NEM12 nor generic interval CSV format")
}

// isGenericHeader reports whether a CSV header row carries the columns
// the generic interval parser requires
func isGenericHeader(headerLine string) bool {
	var hasStart, hasLength, hasMeter, hasReading bool
	for _, col := range strings.Split(headerLine, ",") {
		switch name := strings.ToLower(strings.TrimSpace(col)); {
		case name == "interval_start_at":
			hasStart = true
		case name == "interval_length":
			hasLength = true
		case name == "meterpoint_id" || name == "device_id":
			hasMeter = true
		case readingValueRe.MatchString(name):
			hasReading = true
		}
	}
	return hasStart && hasLength && hasMeter && hasReading
}
