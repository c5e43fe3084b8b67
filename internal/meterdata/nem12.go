package meterdata

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode"

	apperrors "nemcli/internal/errors"
	"nemcli/internal/timezone"
)

// record200 is the NEM12 meter header: it scopes the 300 records that
// follow it.
type record200 struct {
	nmi            string
	registerID     string
	nmiSuffix      string
	meterSerial    string
	uom            string
	intervalLength int
}

// nem12Parser carries the state of one parse run
type nem12Parser struct {
	dataset  *ParsedDataset
	current  *record200
	primary  *record200
	skipping bool // inside a secondary meter's block

	secondaryNMIs map[string]bool
	sawHeader     bool
	sawFooter     bool
	day300Count   int

	// index range of the most recent 300 expansion, for 400 overrides
	last300Start int
	last300Count int
}

// ParseNEM12 parses NEM12 file content into a ParsedDataset.
//
// The file must contain a 100 header record, at least one 200 meter
// header followed by 300 interval records, and a 900 footer; anything
// else structural is a FormatError. Individually malformed records are
// skipped with a warning. When the file carries more than one meter, the
// first NMI encountered is the primary and the others are skipped with a
// warning each. Blank or non-numeric interval values become null
// readings.
func ParseNEM12(r io.Reader, logger *slog.Logger) (*ParsedDataset, error) {
	if logger == nil {
		logger = slog.Default()
	}

	p := &nem12Parser{
		dataset:       &ParsedDataset{},
		secondaryNMIs: make(map[string]bool),
		last300Start:  -1,
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if lineNum == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		if line == "" {
			continue
		}

		fields := strings.Split(line, ",")
		switch fields[0] {
		case "100":
			if lineNum > 1 && p.sawHeader {
				p.dataset.Warnings.AddAt(apperrors.WarnMalformedRecord, lineNum, "duplicate 100 header record")
				continue
			}
			p.sawHeader = true
		case "200":
			p.parse200(fields, lineNum)
		case "300":
			p.parse300(fields, lineNum)
		case "400":
			p.parse400(fields, lineNum)
		case "500":
			// interval event block terminator, nothing to extract
		case "900":
			p.sawFooter = true
		default:
			p.dataset.Warnings.AddAt(apperrors.WarnUnknownRecord, lineNum,
				fmt.Sprintf("unknown record type %q", fields[0]))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, apperrors.WrapFormatError("reading input", err)
	}

	if !p.sawHeader {
		return nil, apperrors.NewFormatError("missing 100 header record")
	}
	if !p.sawFooter {
		return nil, apperrors.NewFormatError("missing 900 footer record")
	}
	if p.primary == nil {
		return nil, apperrors.NewFormatError("no 200 (meter header) records found")
	}
	if len(p.dataset.Readings) == 0 {
		return nil, apperrors.NewFormatError("no interval data found in file")
	}

	sortReadings(p.dataset.Readings)

	p.dataset.MeterID = p.primary.nmi
	p.dataset.RegisterID = p.primary.registerID
	p.dataset.MeterSerial = p.primary.meterSerial
	p.dataset.UOM = p.primary.uom
	p.dataset.IntervalLength = p.primary.intervalLength
	p.dataset.TotalDays = p.day300Count

	logger.Info("parsed NEM12 file",
		slog.String("nmi", p.dataset.MeterID),
		slog.Int("readings", len(p.dataset.Readings)),
		slog.Int("days", p.dataset.TotalDays),
		slog.Int("interval_length", p.dataset.IntervalLength),
		slog.Int("warnings", len(p.dataset.Warnings)))

	return p.dataset, nil
}

func (p *nem12Parser) parse200(fields []string, line int) {
	if len(fields) < 9 {
		p.dataset.Warnings.AddAt(apperrors.WarnMalformedRecord, line, "200 record has too few fields")
		p.current = nil
		p.skipping = false
		return
	}

	intervalLength, err := strconv.Atoi(strings.TrimSpace(fields[8]))
	if err != nil || !validIntervalLength(intervalLength) {
		p.dataset.Warnings.AddAt(apperrors.WarnMalformedRecord, line,
			fmt.Sprintf("200 record has invalid interval length %q", fields[8]))
		p.current = nil
		p.skipping = false
		return
	}

	rec := &record200{
		nmi:            fields[1],
		registerID:     fields[3],
		nmiSuffix:      fields[4],
		meterSerial:    fields[6],
		uom:            fields[7],
		intervalLength: intervalLength,
	}

	if p.primary == nil {
		p.primary = rec
	} else if rec.nmi != p.primary.nmi {
		if !p.secondaryNMIs[rec.nmi] {
			p.secondaryNMIs[rec.nmi] = true
			p.dataset.MultipleMeters = true
			p.dataset.Warnings.AddAt(apperrors.WarnSecondaryMeter, line,
				fmt.Sprintf("file contains additional meter %s; only primary meter %s is processed", rec.nmi, p.primary.nmi))
		}
		p.current = rec
		p.skipping = true
		return
	}

	p.current = rec
	p.skipping = false
}

func (p *nem12Parser) parse300(fields []string, line int) {
	p.last300Start = -1

	if p.current == nil {
		p.dataset.Warnings.AddAt(apperrors.WarnMalformedRecord, line, "300 record found before any 200 record")
		return
	}
	if p.skipping {
		return
	}
	if len(fields) < 3 {
		p.dataset.Warnings.AddAt(apperrors.WarnMalformedRecord, line, "300 record has too few fields")
		return
	}

	date, err := time.ParseInLocation("20060102", strings.TrimSpace(fields[1]), timezone.Industry)
	if err != nil {
		p.dataset.Warnings.AddAt(apperrors.WarnMalformedRecord, line,
			fmt.Sprintf("300 record has invalid date %q", fields[1]))
		return
	}

	// Interval values run from field 2 up to the quality method, which is
	// the first field starting with a letter (e.g. "A", "E64"). Counts of
	// 46/50 on DST transition days are legitimate and kept as-is.
	values := make([]*float64, 0, 50)
	idx := 2
	for ; idx < len(fields); idx++ {
		v := strings.TrimSpace(fields[idx])
		if v != "" && unicode.IsLetter(rune(v[0])) {
			break
		}
		if v == "" {
			values = append(values, nil)
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			values = append(values, nil)
			p.dataset.Warnings.AddAt(apperrors.WarnMissingReading, line,
				fmt.Sprintf("non-numeric interval value %q treated as missing", v))
			continue
		}
		values = append(values, &f)
	}

	if len(values) == 0 {
		p.dataset.Warnings.AddAt(apperrors.WarnMalformedRecord, line, "300 record has no interval values")
		return
	}

	quality := "A"
	if idx < len(fields) && strings.TrimSpace(fields[idx]) != "" {
		quality = strings.TrimSpace(fields[idx])
	}

	interval := time.Duration(p.current.intervalLength) * time.Minute
	p.last300Start = len(p.dataset.Readings)
	p.last300Count = len(values)
	p.day300Count++

	for k, v := range values {
		if v == nil {
			p.dataset.Warnings.AddAt(apperrors.WarnMissingReading, line,
				fmt.Sprintf("missing value for interval %d on %s", k+1, date.Format("2006-01-02")))
		}
		// slot k covers [date + k*L, date + (k+1)*L); the reading is
		// stamped with the exclusive end of that window
		p.dataset.Readings = append(p.dataset.Readings, IntervalReading{
			TimestampIndustry: date.Add(time.Duration(k+1) * interval),
			MeterID:           p.current.nmi,
			RegisterID:        p.current.registerID,
			Consumption:       v,
			QualityMethod:     quality,
			IsEstimate:        isEstimateQuality(quality),
		})
	}
}

// parse400 applies a per-interval quality override to the slots of the
// most recent 300 record. Fields: 400,StartInterval,EndInterval,
// QualityMethod,ReasonCode,ReasonDescription.
func (p *nem12Parser) parse400(fields []string, line int) {
	if p.skipping {
		return
	}
	if p.last300Start < 0 {
		p.dataset.Warnings.AddAt(apperrors.WarnMalformedRecord, line, "400 record found without a preceding 300 record")
		return
	}
	if len(fields) < 4 {
		p.dataset.Warnings.AddAt(apperrors.WarnMalformedRecord, line, "400 record has too few fields")
		return
	}

	start, err1 := strconv.Atoi(strings.TrimSpace(fields[1]))
	end, err2 := strconv.Atoi(strings.TrimSpace(fields[2]))
	if err1 != nil || err2 != nil || start < 1 || end < start || end > p.last300Count {
		p.dataset.Warnings.AddAt(apperrors.WarnMalformedRecord, line,
			fmt.Sprintf("400 record has invalid interval range %q-%q", fields[1], fields[2]))
		return
	}

	quality := strings.TrimSpace(fields[3])
	if quality == "" {
		p.dataset.Warnings.AddAt(apperrors.WarnMalformedRecord, line, "400 record has empty quality method")
		return
	}

	for slot := start; slot <= end; slot++ {
		reading := &p.dataset.Readings[p.last300Start+slot-1]
		reading.QualityMethod = quality
		reading.IsEstimate = isEstimateQuality(quality)
	}
}
