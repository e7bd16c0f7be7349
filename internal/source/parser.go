// Package source discovers and parses JSONL transaction exports for import.
package source

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/theirongolddev/finlens/internal/model"
)

const dateOnly = "2006-01-02"

// ParseResult holds the output of parsing a single JSONL file.
type ParseResult struct {
	File        DiscoveredFile
	Records     []Record
	ParseErrors int
	Err         error
}

// ParseFile reads a JSONL export and produces deduplicated transaction
// records. Entries sharing an id are deduplicated, keeping the last one, at
// the position of the first. Blank lines and lines starting with '#' are
// skipped; malformed lines and entries without a positive amount are counted
// in ParseErrors.
func ParseFile(df DiscoveredFile) ParseResult {
	f, err := os.Open(df.Path)
	if err != nil {
		return ParseResult{File: df, Err: err}
	}
	defer func() { _ = f.Close() }()

	var (
		records     []Record
		byID        = make(map[string]int)
		parseErrors int
		lineNo      int
	)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 || line[0] == '#' {
			continue
		}

		var raw RawEntry
		if err := json.Unmarshal(line, &raw); err != nil {
			parseErrors++
			continue
		}
		rec, ok := toRecord(df, lineNo, raw)
		if !ok {
			parseErrors++
			continue
		}

		if i, seen := byID[rec.ExternalID]; seen {
			records[i] = rec
			continue
		}
		byID[rec.ExternalID] = len(records)
		records = append(records, rec)
	}

	if err := scanner.Err(); err != nil {
		return ParseResult{File: df, Records: records, ParseErrors: parseErrors, Err: err}
	}
	return ParseResult{File: df, Records: records, ParseErrors: parseErrors}
}

func toRecord(df DiscoveredFile, line int, raw RawEntry) (Record, bool) {
	amount, err := raw.Amount.Float64()
	if err != nil || amount <= 0 || math.IsInf(amount, 0) || math.IsNaN(amount) {
		return Record{}, false
	}

	var at time.Time
	if raw.Date != "" {
		at, err = parseDate(raw.Date)
		if err != nil {
			return Record{}, false
		}
	}

	id := strings.TrimSpace(raw.ID)
	if id == "" {
		id = fmt.Sprintf("%s:%d", df.Name, line)
	}

	return Record{
		ExternalID: id,
		Line:       line,
		Input: model.TransactionInput{
			Amount:   amount,
			Category: strings.TrimSpace(raw.Category),
			Note:     strings.TrimSpace(raw.Note),
			At:       at,
		},
	}, true
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.ParseInLocation(dateOnly, s, time.Local)
}
