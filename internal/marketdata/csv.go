package marketdata

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadCSV reads a daily bar file with a date,open,high,low,close[,volume]
// header. Column order is taken from the header; the volume column is
// optional and defaults to zero.
func LoadCSV(path, symbol string) (History, error) {
	file, err := os.Open(path)
	if err != nil {
		return History{}, fmt.Errorf("open bars: %w", err)
	}
	defer file.Close()
	return ReadCSV(file, symbol)
}

// ReadCSV parses bar rows from r. Exposed separately so tests can feed
// in-memory data.
func ReadCSV(r io.Reader, symbol string) (History, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return History{}, fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"date", "close"} {
		if _, ok := cols[required]; !ok {
			return History{}, fmt.Errorf("bars for %s: missing %q column", symbol, required)
		}
	}

	var bars []Bar
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return History{}, fmt.Errorf("read row %d: %w", line, err)
		}
		bar, err := parseBar(record, cols)
		if err != nil {
			return History{}, fmt.Errorf("row %d: %w", line, err)
		}
		bars = append(bars, bar)
	}

	h := NewHistory(symbol, bars)
	if err := h.Validate(); err != nil {
		return History{}, err
	}
	return h, nil
}

func parseBar(record []string, cols map[string]int) (Bar, error) {
	field := func(name string) (float64, bool, error) {
		idx, ok := cols[name]
		if !ok || idx >= len(record) || strings.TrimSpace(record[idx]) == "" {
			return 0, false, nil
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(record[idx]), 64)
		if err != nil {
			return 0, false, fmt.Errorf("parse %s: %w", name, err)
		}
		return v, true, nil
	}

	date, err := time.Parse("2006-01-02", strings.TrimSpace(record[cols["date"]]))
	if err != nil {
		return Bar{}, fmt.Errorf("parse date: %w", err)
	}

	var bar Bar
	bar.Date = date
	if bar.Open, _, err = field("open"); err != nil {
		return Bar{}, err
	}
	if bar.High, _, err = field("high"); err != nil {
		return Bar{}, err
	}
	if bar.Low, _, err = field("low"); err != nil {
		return Bar{}, err
	}
	closePx, ok, err := field("close")
	if err != nil {
		return Bar{}, err
	}
	if !ok {
		return Bar{}, fmt.Errorf("missing close value")
	}
	bar.Close = closePx
	if bar.Volume, _, err = field("volume"); err != nil {
		return Bar{}, err
	}
	return bar, nil
}
