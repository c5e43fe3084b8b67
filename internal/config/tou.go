package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"

	apperrors "nemcli/internal/errors"
	"nemcli/internal/timezone"
	"nemcli/internal/tou"
)

// touFile is the on-disk shape of a tariff definition.
type touFile struct {
	State   string      `yaml:"state"`
	Periods []touPeriod `yaml:"periods"`
}

type touPeriod struct {
	Name        string   `yaml:"name"`
	PricePerKWh *float64 `yaml:"price_per_kwh"`
	Weekday     []string `yaml:"weekday"`
	Weekend     []string `yaml:"weekend"`
	Holiday     []string `yaml:"holiday"`
}

// LoadTOU reads a time-of-use tariff definition. The document names the
// state the meter is installed in and an ordered list of periods, each
// with "HH:MM-HH:MM" ranges per day type and an optional price.
//
// Structural problems surface as ConfigError: the caller treats them as
// fatal before any data is processed.
func LoadTOU(path string) (*tou.Configuration, timezone.State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", apperrors.WrapConfigError("file", fmt.Sprintf("reading tariff file %s", path), err)
	}
	return ParseTOU(data)
}

// ParseTOU parses an in-memory tariff document. Split out from LoadTOU
// for testing.
func ParseTOU(data []byte) (*tou.Configuration, timezone.State, error) {
	var doc touFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, "", apperrors.WrapConfigError("file", "tariff file is not valid YAML", err)
	}

	state := timezone.State(strings.ToUpper(strings.TrimSpace(doc.State)))
	if !timezone.Valid(state) {
		return nil, "", apperrors.NewConfigError("state",
			fmt.Sprintf("unknown state %q (expected one of %v)", doc.State, timezone.All()))
	}

	cfg := &tou.Configuration{}
	for _, p := range doc.Periods {
		def := tou.PeriodDefinition{Name: strings.TrimSpace(p.Name)}

		var err error
		if def.WeekdayRanges, err = parseRanges(def.Name, "weekday", p.Weekday); err != nil {
			return nil, "", err
		}
		if def.WeekendRanges, err = parseRanges(def.Name, "weekend", p.Weekend); err != nil {
			return nil, "", err
		}
		if def.HolidayRanges, err = parseRanges(def.Name, "holiday", p.Holiday); err != nil {
			return nil, "", err
		}

		if p.PricePerKWh != nil {
			price := decimal.NewFromFloat(*p.PricePerKWh)
			def.PricePerKWh = &price
		}

		cfg.Periods = append(cfg.Periods, def)
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, state, nil
}

func parseRanges(period, dayType string, specs []string) ([]tou.TimeRange, error) {
	var ranges []tou.TimeRange
	for _, s := range specs {
		r, err := tou.ParseRange(s)
		if err != nil {
			return nil, apperrors.WrapConfigError(
				fmt.Sprintf("periods.%s.%s", period, dayType),
				fmt.Sprintf("invalid time range %q", s), err)
		}
		ranges = append(ranges, r)
	}
	return ranges, nil
}
