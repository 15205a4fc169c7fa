package convert

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/csvmd/internal/logger"
	"github.com/jmylchreest/csvmd/pkg/cleaner"
	"github.com/jmylchreest/csvmd/pkg/mojibake"
	"github.com/jmylchreest/csvmd/pkg/records"
)

// writeInput writes data to a temp file and returns input and output paths.
func writeInput(t *testing.T, data []byte) (string, string) {
	t.Helper()
	dir := t.TempDir()
	in := filepath.Join(dir, "in.csv")
	if err := os.WriteFile(in, data, 0o600); err != nil {
		t.Fatalf("failed to write input: %v", err)
	}
	return in, filepath.Join(dir, "out.csv")
}

func readOutput(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	return string(data)
}

// --- Convert Tests ---

func TestConvert_Scenario(t *testing.T) {
	in, out := writeInput(t, []byte("Name,Description\r\n"+
		"Widget,<p>Hello <b>World</b></p>\r\n"+
		"\r\n"+
		"Gadget,Plain text\r\n"))

	report, err := Convert(context.Background(), in, out, WithColumn("Description"))
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	want := "Name,Description\r\n" +
		`"Widget","Hello **World**"` + "\r\n" +
		"\r\n" +
		`"Gadget","Plain text"` + "\r\n"
	if got := readOutput(t, out); got != want {
		t.Errorf("output = %q\nwant     %q", got, want)
	}

	if report.InputRecords.N != 4 || report.OutputRecords.N != 4 {
		t.Errorf("counts = %d -> %d, want 4 -> 4", report.InputRecords.N, report.OutputRecords.N)
	}
	if !report.Match {
		t.Error("expected Match")
	}
	if report.BlankRecords != 1 {
		t.Errorf("BlankRecords = %d, want 1", report.BlankRecords)
	}
	if report.FieldsRewritten != 2 {
		t.Errorf("FieldsRewritten = %d, want 2", report.FieldsRewritten)
	}
	if report.RunID == "" {
		t.Error("expected a run ID")
	}
}

func TestConvert_BlankRecordsKeepPosition(t *testing.T) {
	in, out := writeInput(t, []byte("id,body\r\n\r\n1,a\r\n\r\n\r\n2,b\r\n\r\n"))

	report, err := Convert(context.Background(), in, out,
		WithColumn("body"), WithCleaner(cleaner.NewNoop()))
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	got := records.Split([]byte(readOutput(t, out)), records.CRLF)
	wantBlank := []bool{false, true, false, true, true, false, true}
	if len(got) != len(wantBlank) {
		t.Fatalf("output has %d records, want %d", len(got), len(wantBlank))
	}
	for i, blank := range wantBlank {
		if (len(got[i]) == 0) != blank {
			t.Errorf("record %d blank = %v, want %v (%q)", i, len(got[i]) == 0, blank, got[i])
		}
	}
	if report.BlankRecords != 4 || !report.Match {
		t.Errorf("report = %+v", report)
	}
}

func TestConvert_LoneCarriageReturn(t *testing.T) {
	in, out := writeInput(t, []byte("id,body,note\r\n"+
		"1,\"first\rsecond\",x\r\n"+
		"2,plain,y\rz\r\n"))

	report, err := Convert(context.Background(), in, out,
		WithColumn("body"), WithCleaner(cleaner.NewNoop()))
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	want := "id,body,note\r\n" +
		"\"1\",\"first\nsecond\",\"x\"\r\n" +
		"\"2\",\"plain\",\"y\rz\"\r\n"
	if got := readOutput(t, out); got != want {
		t.Errorf("output = %q\nwant     %q", got, want)
	}
	if report.InputRecords.N != 3 || report.OutputRecords.N != 3 {
		t.Errorf("counts = %d -> %d, want 3 -> 3", report.InputRecords.N, report.OutputRecords.N)
	}
}

func TestConvert_RepairsMojibake(t *testing.T) {
	// UTF-8 bytes in a file read as Windows-1252 are exactly one corruption.
	once := []byte("Name,Description\r\nX,<p>Café</p>\r\n")

	doubled, err := mojibake.Corrupt("<p>Café</p>", nil)
	if err != nil {
		t.Fatal(err)
	}
	twice := []byte("Name,Description\r\nX," + doubled + "\r\n")

	for name, data := range map[string][]byte{"once": once, "twice": twice} {
		t.Run(name, func(t *testing.T) {
			in, out := writeInput(t, data)

			report, err := Convert(context.Background(), in, out, WithColumn("Description"))
			if err != nil {
				t.Fatalf("Convert() error = %v", err)
			}

			want := "Name,Description\r\n\"X\",\"Café\"\r\n"
			if got := readOutput(t, out); got != want {
				t.Errorf("output = %q, want %q", got, want)
			}
			if report.FieldsRepaired != 1 {
				t.Errorf("FieldsRepaired = %d, want 1", report.FieldsRepaired)
			}
		})
	}
}

func TestConvert_LegacyBytesBecomeUTF8(t *testing.T) {
	// 0xE9 is é in Windows-1252; the output must be UTF-8.
	data := []byte("Name,Description\r\nX,Caf\xe9\r\n")
	in, out := writeInput(t, data)

	report, err := Convert(context.Background(), in, out, WithColumns("Name", "Description"))
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if got := readOutput(t, out); got != "Name,Description\r\n\"X\",\"Café\"\r\n" {
		t.Errorf("output = %q", got)
	}
	if report.FieldsRepaired != 0 {
		t.Errorf("FieldsRepaired = %d, want 0", report.FieldsRepaired)
	}
}

func TestConvert_UndefinedWindows1252Bytes(t *testing.T) {
	// Á is C3 81 in UTF-8 and 0x81 has no Windows-1252 character.
	data := []byte("Name,Description\r\n\xc3\x81rbol,<p>\xc3\x81rbol \xc3\xa9t\xc3\xa9</p>\r\n")

	tests := []struct {
		name    string
		columns []string
		want    string
	}{
		{
			name:    "target column repaired, other kept byte for byte",
			columns: []string{"Description"},
			want:    "Name,Description\r\n\"\u00c3\u0081rbol\",\"Árbol été\"\r\n",
		},
		{
			name:    "both columns repaired",
			columns: []string{"Name", "Description"},
			want:    "Name,Description\r\n\"Árbol\",\"Árbol été\"\r\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, out := writeInput(t, data)

			report, err := Convert(context.Background(), in, out, WithColumns(tt.columns...))
			if err != nil {
				t.Fatalf("Convert() error = %v", err)
			}
			got := readOutput(t, out)
			if strings.ContainsRune(got, '\uFFFD') {
				t.Errorf("output holds U+FFFD: %q", got)
			}
			if got != tt.want {
				t.Errorf("output = %q\nwant     %q", got, tt.want)
			}
			if report.FieldsRepaired != len(tt.columns) {
				t.Errorf("FieldsRepaired = %d, want %d", report.FieldsRepaired, len(tt.columns))
			}
		})
	}
}

func TestConvert_TrailingLoneCRKept(t *testing.T) {
	in, out := writeInput(t, []byte("id,Description,note\r\nA,<p>x</p>,foo\r\r\n"))

	report, err := Convert(context.Background(), in, out, WithColumn("Description"))
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	want := "id,Description,note\r\n\"A\",\"x\",\"foo\r\"\r\n"
	if got := readOutput(t, out); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
	if !report.Match || report.OutputRecords.N != 2 {
		t.Errorf("report = %+v", report)
	}
}

func TestConvert_InvalidUTF8SourceFails(t *testing.T) {
	in, out := writeInput(t, []byte("Name,Description\r\nX,bad \xff byte\r\n"))

	_, err := Convert(context.Background(), in, out,
		WithColumn("Description"), WithSourceEncoding("utf-8"))
	if err == nil || !strings.Contains(err.Error(), "record 2") {
		t.Fatalf("Convert() error = %v, want record 2 decode failure", err)
	}
	if _, statErr := os.Stat(out); !errors.Is(statErr, fs.ErrNotExist) {
		t.Error("output file should not exist")
	}
}

func TestConvert_HeaderBytesUnchanged(t *testing.T) {
	header := "\xef\xbb\xbfName,\"Long Description\",Price"
	in, out := writeInput(t, []byte(header+"\r\nA,<i>x</i>,1\r\n"))

	if _, err := Convert(context.Background(), in, out, WithColumn("Long Description")); err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	got := readOutput(t, out)
	if !strings.HasPrefix(got, header+"\r\n") {
		t.Errorf("header changed: %q", got)
	}
	if !strings.Contains(got, `"A","*x*","1"`) {
		t.Errorf("row not rewritten: %q", got)
	}
}

func TestConvert_NoTargetColumns(t *testing.T) {
	in, out := writeInput(t, []byte("Name,Description\r\nA,B\r\n"))

	report, err := Convert(context.Background(), in, out, WithColumns("Body", "Summary"))
	if !errors.Is(err, ErrNoTargetColumns) {
		t.Fatalf("Convert() error = %v, want ErrNoTargetColumns", err)
	}
	if _, statErr := os.Stat(out); !errors.Is(statErr, fs.ErrNotExist) {
		t.Errorf("output file should not exist, stat error = %v", statErr)
	}
	if len(report.Missing) != 2 {
		t.Errorf("Missing = %q", report.Missing)
	}
	if report.Duration <= 0 {
		t.Errorf("Duration = %v, want it set on early return", report.Duration)
	}
}

func TestConvert_EmptyInput(t *testing.T) {
	in, out := writeInput(t, nil)

	_, err := Convert(context.Background(), in, out, WithColumn("Description"))
	if !errors.Is(err, ErrNoTargetColumns) {
		t.Fatalf("Convert() error = %v, want ErrNoTargetColumns", err)
	}
	if _, statErr := os.Stat(out); !errors.Is(statErr, fs.ErrNotExist) {
		t.Error("output file should not exist")
	}
}

func TestConvert_MissingColumnWarns(t *testing.T) {
	buf := &bytes.Buffer{}
	logger.Init(logger.Options{Output: buf})
	defer logger.Init(logger.Options{})

	in, out := writeInput(t, []byte("Name,Description\r\nA,<b>B</b>\r\n"))

	report, err := Convert(context.Background(), in, out, WithColumns("Description", "Summary"))
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if len(report.Found) != 1 || report.Found[0].Name != "Description" {
		t.Errorf("Found = %+v", report.Found)
	}

	logs := buf.String()
	if !strings.Contains(logs, "column not found in header") || !strings.Contains(logs, "Summary") {
		t.Errorf("expected missing column warning, got %q", logs)
	}
	if !strings.Contains(logs, "record counts match") {
		t.Errorf("expected match verdict in logs, got %q", logs)
	}
}

func TestConvert_InputNotFound(t *testing.T) {
	dir := t.TempDir()

	report, err := Convert(context.Background(),
		filepath.Join(dir, "missing.csv"), filepath.Join(dir, "out.csv"), WithColumn("x"))
	if !errors.Is(err, ErrInputNotFound) {
		t.Fatalf("Convert() error = %v, want ErrInputNotFound", err)
	}
	if report.InputRecords.Status != records.StatusNotFound {
		t.Errorf("InputRecords = %+v", report.InputRecords)
	}
}

func TestConvert_UnterminatedLastRecord(t *testing.T) {
	in, out := writeInput(t, []byte("Name,Description\r\nA,<b>B</b>"))

	report, err := Convert(context.Background(), in, out, WithColumn("Description"))
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if got := readOutput(t, out); got != "Name,Description\r\n\"A\",\"**B**\"\r\n" {
		t.Errorf("output = %q", got)
	}
	if report.InputRecords.N != 2 || !report.Match {
		t.Errorf("report = %+v", report)
	}
}

func TestConvert_ShortRowsKeepTheirWidth(t *testing.T) {
	in, out := writeInput(t, []byte("a,b,Description\r\n1\r\n2,3,<em>x</em>\r\n"))

	if _, err := Convert(context.Background(), in, out, WithColumn("Description")); err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	want := "a,b,Description\r\n\"1\"\r\n\"2\",\"3\",\"*x*\"\r\n"
	if got := readOutput(t, out); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestConvert_RowParseErrorAborts(t *testing.T) {
	in, out := writeInput(t, []byte("a,Description\r\n1,x\nstray,row\r\n"))

	_, err := Convert(context.Background(), in, out, WithColumn("Description"))
	if err == nil || !strings.Contains(err.Error(), "record 2") {
		t.Fatalf("Convert() error = %v, want record 2 failure", err)
	}
	if _, statErr := os.Stat(out); !errors.Is(statErr, fs.ErrNotExist) {
		t.Error("output file should not exist")
	}
}

func TestConvert_ContextCanceled(t *testing.T) {
	in, out := writeInput(t, []byte("a,Description\r\n1,x\r\n"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Convert(ctx, in, out, WithColumn("Description")); !errors.Is(err, context.Canceled) {
		t.Errorf("Convert() error = %v, want context.Canceled", err)
	}
}

func TestConvert_UTF8Source(t *testing.T) {
	in, out := writeInput(t, []byte("Name,Description\r\nX,<p>Ünïcode</p>\r\n"))

	_, err := Convert(context.Background(), in, out,
		WithColumn("Description"), WithSourceEncoding("utf-8"))
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if got := readOutput(t, out); got != "Name,Description\r\n\"X\",\"Ünïcode\"\r\n" {
		t.Errorf("output = %q", got)
	}
}

// --- verifyOutput Tests ---

func TestVerifyOutput(t *testing.T) {
	dir := t.TempDir()
	short := filepath.Join(dir, "short.csv")
	if err := os.WriteFile(short, []byte("h\r\n1\r\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		output     string
		input      int
		wantMatch  bool
		wantStatus records.Status
	}{
		{"equal counts", short, 2, true, records.StatusOK},
		{"fewer output records", short, 3, false, records.StatusOK},
		{"output missing", filepath.Join(dir, "missing.csv"), 0, false, records.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger.Init(logger.Options{Output: buf})
			defer logger.Init(logger.Options{})

			report := &Report{
				Output:       tt.output,
				InputRecords: records.Count{N: tt.input, Status: records.StatusOK},
			}
			err := verifyOutput(logger.Get(), report)

			if report.Match != tt.wantMatch {
				t.Errorf("Match = %v, want %v", report.Match, tt.wantMatch)
			}
			if report.OutputRecords.Status != tt.wantStatus {
				t.Errorf("OutputRecords = %+v", report.OutputRecords)
			}
			if tt.wantMatch {
				if err != nil {
					t.Errorf("verifyOutput() error = %v", err)
				}
				return
			}
			if !errors.Is(err, ErrCountMismatch) {
				t.Errorf("verifyOutput() error = %v, want ErrCountMismatch", err)
			}
			if !strings.Contains(buf.String(), "level=ERROR") || !strings.Contains(buf.String(), "record count mismatch") {
				t.Errorf("expected error log, got %q", buf.String())
			}
			if report.Verdict() != "MISMATCH" {
				t.Errorf("Verdict() = %q", report.Verdict())
			}
		})
	}
}

// --- Report Tests ---

func TestReport_String(t *testing.T) {
	r := &Report{
		RunID:         "run-1",
		Input:         "in.csv",
		Output:        "out.csv",
		InputRecords:  records.Count{N: 4, Status: records.StatusOK},
		OutputRecords: records.Count{N: 4, Status: records.StatusOK},
		Found:         ColumnIndex{{Name: "Description", Index: 1}},
		Missing:       []string{"Summary"},
		Match:         true,
	}

	s := r.String()
	for _, want := range []string{"run-1", "in.csv", "4 records (ok)", "Description (#1)", "Missing: Summary", "MATCH"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() missing %q:\n%s", want, s)
		}
	}

	r.Match = false
	if r.Verdict() != "MISMATCH" {
		t.Errorf("Verdict() = %q", r.Verdict())
	}
}

func TestReport_YAMLDuration(t *testing.T) {
	out, err := yaml.Marshal(&Report{Duration: 1500 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), "duration: 1.5s") {
		t.Errorf("yaml = %s", out)
	}
}
