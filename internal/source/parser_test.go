package source

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeExport creates a temp JSONL file and returns a DiscoveredFile for it.
func writeExport(t *testing.T, lines ...string) DiscoveredFile {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "export.jsonl")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	return DiscoveredFile{Path: path, Name: "export.jsonl"}
}

func TestParseFile_Records(t *testing.T) {
	df := writeExport(t,
		`{"id":"a1","amount":450,"category":"Dining","note":"dinner","date":"2025-06-01T20:30:00Z"}`,
		`{"amount":"1200.50","category":"Groceries"}`,
		`{"amount":99}`,
	)

	result := ParseFile(df)
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if len(result.Records) != 3 {
		t.Fatalf("Records = %d, want 3", len(result.Records))
	}

	first := result.Records[0]
	if first.ExternalID != "a1" {
		t.Errorf("ExternalID = %q, want a1", first.ExternalID)
	}
	if first.Input.Amount != 450 || first.Input.Category != "Dining" || first.Input.Note != "dinner" {
		t.Errorf("Input = %+v", first.Input)
	}
	want := time.Date(2025, 6, 1, 20, 30, 0, 0, time.UTC)
	if !first.Input.At.Equal(want) {
		t.Errorf("At = %v, want %v", first.Input.At, want)
	}

	if got := result.Records[1].Input.Amount; got != 1200.50 {
		t.Errorf("string amount = %v, want 1200.50", got)
	}
	if got := result.Records[1].ExternalID; got != "export.jsonl:2" {
		t.Errorf("derived ExternalID = %q, want export.jsonl:2", got)
	}
	if !result.Records[2].Input.At.IsZero() {
		t.Errorf("missing date should leave At zero, got %v", result.Records[2].Input.At)
	}
}

func TestParseFile_DedupLastWins(t *testing.T) {
	df := writeExport(t,
		`{"id":"x","amount":100,"category":"Travel"}`,
		`{"id":"y","amount":5}`,
		`{"id":"x","amount":120,"category":"Travel"}`,
	)

	result := ParseFile(df)
	if len(result.Records) != 2 {
		t.Fatalf("Records = %d, want 2 (dedup)", len(result.Records))
	}
	if result.Records[0].ExternalID != "x" || result.Records[0].Input.Amount != 120 {
		t.Errorf("Records[0] = %+v, want x with amount 120 (last wins, first position)", result.Records[0])
	}
	if result.Records[0].Line != 3 {
		t.Errorf("Line = %d, want 3", result.Records[0].Line)
	}
}

func TestParseFile_DateOnly(t *testing.T) {
	df := writeExport(t, `{"amount":10,"date":"2025-02-14"}`)

	result := ParseFile(df)
	if len(result.Records) != 1 {
		t.Fatalf("Records = %d, want 1", len(result.Records))
	}
	at := result.Records[0].Input.At
	if at.Year() != 2025 || at.Month() != time.February || at.Day() != 14 {
		t.Errorf("At = %v, want 2025-02-14", at)
	}
}

func TestParseFile_SkipsAndCountsErrors(t *testing.T) {
	df := writeExport(t,
		``,
		`# exported 2025-06-30`,
		`not json`,
		`{"amount":0}`,
		`{"amount":-5}`,
		`{"amount":"abc"}`,
		`{"amount":10,"date":"yesterday"}`,
		`{"amount":7}`,
	)

	result := ParseFile(df)
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if len(result.Records) != 1 {
		t.Errorf("Records = %d, want 1", len(result.Records))
	}
	if result.ParseErrors != 5 {
		t.Errorf("ParseErrors = %d, want 5", result.ParseErrors)
	}
}

func TestParseFile_MissingFile(t *testing.T) {
	result := ParseFile(DiscoveredFile{Path: filepath.Join(t.TempDir(), "nope.jsonl")})
	if result.Err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestScanPaths(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "2025")
	if err := os.MkdirAll(sub, 0o750); err != nil {
		t.Fatal(err)
	}
	for _, p := range []string{
		filepath.Join(dir, "a.jsonl"),
		filepath.Join(sub, "b.JSONL"),
		filepath.Join(dir, "notes.txt"),
	} {
		if err := os.WriteFile(p, []byte("{}\n"), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	explicit := filepath.Join(dir, "notes.txt")

	files, err := ScanPaths([]string{dir, explicit, filepath.Join(dir, "a.jsonl")})
	if err != nil {
		t.Fatalf("ScanPaths: %v", err)
	}

	var names []string
	for _, f := range files {
		names = append(names, f.Name)
	}
	got := strings.Join(names, ",")
	if got != "b.JSONL,a.jsonl,notes.txt" {
		t.Errorf("files = %s, want b.JSONL,a.jsonl,notes.txt", got)
	}

	if _, err := ScanPaths([]string{filepath.Join(dir, "missing")}); err == nil {
		t.Error("expected error for missing path")
	}
}

func TestCountRecords(t *testing.T) {
	results := []ParseResult{
		{Records: make([]Record, 2)},
		{Err: os.ErrNotExist},
		{Records: make([]Record, 3)},
	}
	if got := CountRecords(results); got != 5 {
		t.Errorf("CountRecords = %d, want 5", got)
	}
}
