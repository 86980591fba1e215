package main

import (
	"bytes"
	"context"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

const resultsPage = `<html><body>
<table><tr><td>menu</td></tr></table>
<table>
  <caption>Results</caption>
  <tr><th>Name</th><th>Score</th></tr>
  <tr><td> A. Skater </td><td>55.2</td></tr>
</table>
</body></html>`

func newPageServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(resultsPage))
	}))
	t.Cleanup(srv.Close)
	return srv
}

// run executes the CLI in an empty directory so no local config or .env is picked up.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return runIn(t, t.TempDir(), args...)
}

// runIn executes the CLI with dir as the working directory.
func runIn(t *testing.T, dir string, args ...string) (string, string, error) {
	t.Helper()
	t.Chdir(dir)

	var out, errOut bytes.Buffer
	root := newRootCommand()
	root.Writer = &out
	root.ErrWriter = &errOut
	err := root.Run(context.Background(), append([]string{"tablescrape"}, args...))
	return out.String(), errOut.String(), err
}

func TestExtractCommand(t *testing.T) {
	srv := newPageServer(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "csv by default",
			args: []string{"extract", "--index", "1", srv.URL},
			want: "Name,Score\nA. Skater,55.2\n",
		},
		{
			name: "json",
			args: []string{"extract", "-i", "1", "-f", "json", srv.URL},
			want: "[[\"Name\",\"Score\"],[\"A. Skater\",\"55.2\"]]\n",
		},
		{
			name: "first table",
			args: []string{"extract", srv.URL},
			want: "menu\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := run(t, tt.args...)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if out != tt.want {
				t.Errorf("got %q, want %q", out, tt.want)
			}
		})
	}
}

func TestExtractCommandErrors(t *testing.T) {
	srv := newPageServer(t)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"missing url", []string{"extract"}, "exactly one URL"},
		{"bad format", []string{"extract", "-f", "xml", srv.URL}, "invalid argument"},
		{"index out of range", []string{"extract", "-i", "5", srv.URL}, "table not found"},
		{"negative index", []string{"extract", "--index=-1", srv.URL}, "invalid argument"},
		{"http error", []string{"extract", srv.URL + "/missing"}, "404"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := run(t, tt.args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected %q in error, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestExtractCommandWritesWorkbook(t *testing.T) {
	srv := newPageServer(t)
	path := filepath.Join(t.TempDir(), "results.xlsx")

	if _, _, err := run(t, "extract", "-i", "1", "--xlsx", path, srv.URL); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	value, err := f.GetCellValue("Table", "A2")
	if err != nil {
		t.Fatalf("read cell: %v", err)
	}
	if value != "A. Skater" {
		t.Errorf("A2 = %q", value)
	}
}

func TestTablesCommand(t *testing.T) {
	srv := newPageServer(t)

	out, _, err := run(t, "tables", srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{`"index": 1`, `"caption": "Results"`, `"rows": 2`, `"columns": 2`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output, got: %s", want, out)
		}
	}
}

func TestJSONToCSVCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skaters.json")
	data := `[{"name":"A. Skater","score":55.2},{"name":"B. Skater","score":50.1}]`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	out, _, err := run(t, "json-to-csv", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "name,score\nA. Skater,55.2\nB. Skater,50.1\n"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestFetchCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body><h1>Results</h1></body></html>"))
	}))
	defer srv.Close()

	out, _, err := run(t, "fetch", srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "# Results") {
		t.Errorf("expected markdown heading, got %q", out)
	}
}

func TestConfigInitCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "tablescrape.toml")

	out, _, err := run(t, "config", "init", "--path", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, path) {
		t.Errorf("expected path in output, got %q", out)
	}

	if _, _, err := run(t, "config", "init", "--path", path); err == nil {
		t.Error("expected error when the file exists")
	}
	if _, _, err := run(t, "config", "init", "--path", path, "--force"); err != nil {
		t.Errorf("--force should overwrite: %v", err)
	}

	if _, _, err := run(t, "--config", path, "extract"); err == nil || !strings.Contains(err.Error(), "exactly one URL") {
		t.Errorf("generated config should load, got %v", err)
	}
}

func TestConfigInitCommand_RepairsMalformedDefaultFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tablescrape.toml")
	if err := os.WriteFile(path, []byte("[server\ntransport = "), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, _, err := runIn(t, dir, "tables", "http://example.com"); err == nil {
		t.Fatal("expected the malformed config to fail other commands")
	}
	if _, _, err := runIn(t, dir, "config", "init", "--force"); err != nil {
		t.Fatalf("config init --force should ignore the malformed file: %v", err)
	}
	if _, _, err := runIn(t, dir, "extract"); err == nil || !strings.Contains(err.Error(), "exactly one URL") {
		t.Errorf("regenerated config should load, got %v", err)
	}
}

func TestPlotCommand(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "scores.csv")
	if err := os.WriteFile(csvPath, []byte("Name,Score\nA. Skater,55.2\nB. Skater,49\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	pngPath := filepath.Join(dir, "scores.png")

	out, _, err := run(t, "plot", "--type", "bar", "--x", "Name", "--y", "Score", "-o", pngPath, csvPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "bar chart, 1 series, 2 points") {
		t.Errorf("unexpected output %q", out)
	}
	f, err := os.Open(pngPath)
	if err != nil {
		t.Fatalf("expected PNG at %s: %v", pngPath, err)
	}
	defer f.Close()
	if _, err := png.Decode(f); err != nil {
		t.Errorf("output is not a PNG: %v", err)
	}

	if _, _, err := run(t, "plot", "--x", "Name", "--y", "Points", "-o", pngPath, csvPath); err == nil || !strings.Contains(err.Error(), "invalid argument") {
		t.Errorf("expected missing column error, got %v", err)
	}
}

func TestPlotCommand_ReadsStdin(t *testing.T) {
	t.Chdir(t.TempDir())
	var out bytes.Buffer
	root := newRootCommand()
	root.Reader = strings.NewReader("Season,Score\n2021,55.2\n2022,57.9\n")
	root.Writer = &out
	root.ErrWriter = io.Discard

	err := root.Run(context.Background(), []string{"tablescrape", "plot", "--x", "Season", "--y", "Score", "-o", "line.png", "-"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "line chart, 1 series, 2 points") {
		t.Errorf("unexpected output %q", out.String())
	}
	if _, err := os.Stat("line.png"); err != nil {
		t.Errorf("expected line.png: %v", err)
	}
}

func TestGlobalFlags(t *testing.T) {
	srv := newPageServer(t)

	_, logs, err := run(t, "--log-level", "debug", "--log-format", "json", "--timeout", "5", "extract", "-i", "1", srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(logs, `"msg":"configuration loaded"`) || !strings.Contains(logs, `"fetch.timeout":"5s"`) {
		t.Errorf("expected debug JSON log, got: %s", logs)
	}

	if _, _, err := run(t, "--log-format", "xml", "extract", srv.URL); err == nil {
		t.Error("expected invalid log format to fail")
	}
}

func TestMissingConfigFile(t *testing.T) {
	if _, _, err := run(t, "--config", "does-not-exist.toml", "tables", "http://example.com"); err == nil {
		t.Error("expected error for explicit missing config")
	}
}

func TestUnknownTransport(t *testing.T) {
	_, _, err := run(t, "serve", "--transport", "carrier-pigeon")
	if err == nil {
		t.Fatal("expected error")
	}
}
