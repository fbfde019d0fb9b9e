package calendar

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed holidays.yaml
var embeddedTable []byte

// HolidayTable is the versioned per-year holiday configuration
// ⭐ SSOT: 연도별 휴장일은 이 테이블로만 주입 (코드 상수 금지)
type HolidayTable struct {
	Version string               `yaml:"version" json:"version"`
	Years   map[int]YearHolidays `yaml:"years" json:"years"`
}

// YearHolidays lists the closures of one calendar year
type YearHolidays struct {
	Holidays []string `yaml:"holidays" json:"holidays"`
}

// ParseTable decodes and validates a holiday table
// KnownFields(true)로 오타/미사용 필드 즉시 실패
func ParseTable(data []byte) (*HolidayTable, error) {
	var t HolidayTable
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&t); err != nil {
		return nil, fmt.Errorf("decode holiday table: %w", err)
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// LoadTable reads a holiday table from path, or the embedded table when path is empty
func LoadTable(path string) (*HolidayTable, error) {
	if path == "" {
		return ParseTable(embeddedTable)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read holiday table: %w", err)
	}
	return ParseTable(data)
}

// Validate checks version presence, date format and year consistency
func (t *HolidayTable) Validate() error {
	if t.Version == "" {
		return fmt.Errorf("holiday table: version is required")
	}
	if len(t.Years) == 0 {
		return fmt.Errorf("holiday table: no years defined")
	}

	for year, yh := range t.Years {
		seen := make(map[string]bool, len(yh.Holidays))
		for _, s := range yh.Holidays {
			d, err := time.Parse(dateKeyLayout, s)
			if err != nil {
				return fmt.Errorf("holiday table: year %d: invalid date %q: %w", year, s, err)
			}
			if d.Year() != year {
				return fmt.Errorf("holiday table: %s listed under year %d", s, year)
			}
			if seen[s] {
				return fmt.Errorf("holiday table: duplicate date %s", s)
			}
			seen[s] = true
		}
	}
	return nil
}

// Hash returns a SHA256 fingerprint of the table's canonical JSON
// 주의: 날짜 정렬 후 직렬화하여 해시 재현성 보장
func (t *HolidayTable) Hash() (string, error) {
	canonical := HolidayTable{Version: t.Version, Years: make(map[int]YearHolidays, len(t.Years))}
	for year, yh := range t.Years {
		dates := append([]string(nil), yh.Holidays...)
		sort.Strings(dates)
		canonical.Years[year] = YearHolidays{Holidays: dates}
	}

	// encoding/json sorts map keys
	b, err := json.Marshal(canonical)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}
