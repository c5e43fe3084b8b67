package meterdata

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	apperrors "nemcli/internal/errors"
	"nemcli/internal/timezone"
)

var readingValueRe = regexp.MustCompile(`^reading(\d+)_value$`)

// timestamp layouts accepted for interval_start_at; offset-carrying
// layouts first so aware timestamps are recognized before naive ones
var genericTimeLayouts = []struct {
	layout string
	aware  bool
}{
	{time.RFC3339, true},
	{"2006-01-02T15:04:05Z0700", true},
	{"2006-01-02 15:04:05Z0700", true},
	{"2006-01-02 15:04:05Z07:00", true},
	{"2006-01-02T15:04:05", false},
	{"2006-01-02 15:04:05", false},
	{"2006-01-02 15:04", false},
	{"2/01/2006 15:04", false},
}

// ParseGeneric parses a wide-format interval CSV into a ParsedDataset.
//
// Required columns: interval_start_at, interval_length, and a meter
// identifier (meterpoint_id or device_id); at least one reading<N>_value
// column must exist. Optional columns: register_identifier, units, and
// per-reading reading<N>_quality_method / reading<N>_quality_flag.
// Timezone-aware timestamps are converted to industry time; naive
// timestamps are interpreted as industry time. Reading N covers the
// N-th interval of the row, ending at interval_start_at + N*length.
func ParseGeneric(r io.Reader, logger *slog.Logger) (*ParsedDataset, error) {
	if logger == nil {
		logger = slog.Default()
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, apperrors.WrapFormatError("reading CSV header", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}

	startCol, ok := cols["interval_start_at"]
	if !ok {
		return nil, apperrors.NewFormatError("missing required column interval_start_at")
	}
	lengthCol, ok := cols["interval_length"]
	if !ok {
		return nil, apperrors.NewFormatError("missing required column interval_length")
	}
	meterCol, meterColName := -1, ""
	if idx, ok := cols["meterpoint_id"]; ok {
		meterCol, meterColName = idx, "meterpoint_id"
	} else if idx, ok := cols["device_id"]; ok {
		meterCol, meterColName = idx, "device_id"
	} else {
		return nil, apperrors.NewFormatError("missing meter identifier column (meterpoint_id or device_id)")
	}

	// reading columns ordered by their number
	type readingCol struct {
		num int
		idx int
	}
	var readingCols []readingCol
	for name, idx := range cols {
		if m := readingValueRe.FindStringSubmatch(name); m != nil {
			num, _ := strconv.Atoi(m[1])
			readingCols = append(readingCols, readingCol{num: num, idx: idx})
		}
	}
	if len(readingCols) == 0 {
		return nil, apperrors.NewFormatError("no reading value columns found (expected reading1_value, reading2_value, ...)")
	}
	sort.Slice(readingCols, func(i, j int) bool { return readingCols[i].num < readingCols[j].num })

	ds := &ParsedDataset{UOM: "KWH"}
	var primaryMeter string
	secondaryMeters := make(map[string]bool)
	lineNum := 1

	cell := func(row []string, idx int) string {
		if idx < 0 || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		lineNum++
		if err != nil {
			ds.Warnings.AddAt(apperrors.WarnMalformedRecord, lineNum, fmt.Sprintf("unreadable CSV row: %v", err))
			continue
		}

		length, err := strconv.Atoi(cell(row, lengthCol))
		if err != nil || !validIntervalLength(length) {
			ds.Warnings.AddAt(apperrors.WarnMalformedRecord, lineNum,
				fmt.Sprintf("invalid interval_length %q (must be 5, 15 or 30)", cell(row, lengthCol)))
			continue
		}

		start, err := parseGenericTimestamp(cell(row, startCol))
		if err != nil {
			ds.Warnings.AddAt(apperrors.WarnMalformedRecord, lineNum,
				fmt.Sprintf("invalid interval_start_at %q", cell(row, startCol)))
			continue
		}

		meterID := cell(row, meterCol)
		if meterID == "" {
			ds.Warnings.AddAt(apperrors.WarnMalformedRecord, lineNum,
				fmt.Sprintf("row has empty %s", meterColName))
			continue
		}
		if primaryMeter == "" {
			primaryMeter = meterID
			ds.MeterID = meterID
			ds.IntervalLength = length
			if idx, ok := cols["register_identifier"]; ok {
				ds.RegisterID = cell(row, idx)
			}
			if idx, ok := cols["device_id"]; ok {
				ds.MeterSerial = cell(row, idx)
			}
			if idx, ok := cols["units"]; ok && cell(row, idx) != "" {
				ds.UOM = strings.ToUpper(cell(row, idx))
			}
		} else if meterID != primaryMeter {
			if !secondaryMeters[meterID] {
				secondaryMeters[meterID] = true
				ds.MultipleMeters = true
				ds.Warnings.AddAt(apperrors.WarnSecondaryMeter, lineNum,
					fmt.Sprintf("file contains additional meter %s; only primary meter %s is processed", meterID, primaryMeter))
			}
			continue
		}

		registerID := ds.RegisterID
		if idx, ok := cols["register_identifier"]; ok {
			registerID = cell(row, idx)
		}

		for _, rc := range readingCols {
			raw := cell(row, rc.idx)

			var consumption *float64
			if raw != "" {
				if f, err := strconv.ParseFloat(raw, 64); err == nil {
					consumption = &f
				} else {
					ds.Warnings.AddAt(apperrors.WarnMissingReading, lineNum,
						fmt.Sprintf("non-numeric reading%d_value %q treated as missing", rc.num, raw))
				}
			} else {
				ds.Warnings.AddAt(apperrors.WarnMissingReading, lineNum,
					fmt.Sprintf("missing reading%d_value", rc.num))
			}

			quality := "A"
			if idx, ok := cols[fmt.Sprintf("reading%d_quality_method", rc.num)]; ok && cell(row, idx) != "" {
				quality = cell(row, idx)
			} else if idx, ok := cols[fmt.Sprintf("reading%d_quality_flag", rc.num)]; ok && cell(row, idx) != "" {
				quality = cell(row, idx)
			}

			// reading N ends at start + N*length (exclusive-end convention)
			ds.Readings = append(ds.Readings, IntervalReading{
				TimestampIndustry: start.Add(time.Duration(rc.num*length) * time.Minute),
				MeterID:           meterID,
				RegisterID:        registerID,
				Consumption:       consumption,
				QualityMethod:     quality,
				IsEstimate:        isEstimateQuality(quality),
			})
		}
		ds.TotalDays++
	}

	if len(ds.Readings) == 0 {
		return nil, apperrors.NewFormatError("no interval data found in file")
	}

	sortReadings(ds.Readings)

	logger.Info("parsed generic interval file",
		slog.String("meter_id", ds.MeterID),
		slog.Int("readings", len(ds.Readings)),
		slog.Int("interval_length", ds.IntervalLength),
		slog.Int("warnings", len(ds.Warnings)))

	return ds, nil
}

// parseGenericTimestamp parses an interval_start_at value. Aware
// timestamps are converted to industry time; naive timestamps are
// interpreted as already being industry time.
func parseGenericTimestamp(s string) (time.Time, error) {
	for _, l := range genericTimeLayouts {
		if l.aware {
			if t, err := time.Parse(l.layout, s); err == nil {
				return t.In(timezone.Industry), nil
			}
		} else {
			if t, err := time.ParseInLocation(l.layout, s, timezone.Industry); err == nil {
				return t, nil
			}
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
