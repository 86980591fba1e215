package tableextractor

import (
	"errors"
	"reflect"
	"testing"
)

const resultsPage = `<!DOCTYPE html>
<html>
<head><title>Results</title><style>td { color: red }</style></head>
<body>
<table id="menu"><tr><td>Home</td><td>Events</td></tr></table>
<table>
	<caption> Men's Free Skating </caption>
	<thead>
		<tr><th>Rank</th><th>Name</th><th>Score</th></tr>
	</thead>
	<tbody>
		<tr><td>1</td><td>A. Skater</td><td>180.11</td></tr>
		<tr><td>2</td><td><a href="/b"><b>B.</b> Jumper</a></td><td>175.50</td></tr>
		<tr><td colspan="3">Withdrawn</td></tr>
	</tbody>
</table>
</body>
</html>`

func TestExtract(t *testing.T) {
	tests := []struct {
		name  string
		html  string
		index int
		want  Grid
	}{
		{
			name: "competition example",
			html: `<table><tr><td>Name</td><td>Score</td></tr><tr><td>A. Skater</td><td>55.2</td></tr></table>`,
			want: Grid{{"Name", "Score"}, {"A. Skater", "55.2"}},
		},
		{
			name:  "header and body rows are merged in document order",
			html:  resultsPage,
			index: 1,
			want: Grid{
				{"Rank", "Name", "Score"},
				{"1", "A. Skater", "180.11"},
				{"2", "B. Jumper", "175.50"},
				{"Withdrawn"},
			},
		},
		{
			name: "first table in document order",
			html: resultsPage,
			want: Grid{{"Home", "Events"}},
		},
		{
			name: "cell text is trimmed and entities decoded",
			html: "<table><tr><td>\n   A &amp; B  </td><td>&nbsp;</td><td></td></tr></table>",
			want: Grid{{"A & B", "", ""}},
		},
		{
			name: "br becomes newline",
			html: `<table><tr><td>Line 1<br>Line 2</td></tr></table>`,
			want: Grid{{"Line 1\nLine 2"}},
		},
		{
			name: "script and style content is dropped",
			html: `<table><tr><td>55.2<script>var x = 1;</script><style>.a{}</style></td></tr></table>`,
			want: Grid{{"55.2"}},
		},
		{
			name: "ragged rows are not padded",
			html: `<table><tr><td>a</td><td>b</td><td>c</td></tr><tr><td>d</td></tr><tr></tr></table>`,
			want: Grid{{"a", "b", "c"}, {"d"}, {}},
		},
		{
			name: "table without rows",
			html: `<table></table>`,
			want: Grid{},
		},
		{
			name: "nested table rows stay out of the outer grid",
			html: `<table><tr><td>outer <table><tr><td>inner</td></tr></table></td><td>x</td></tr></table>`,
			want: Grid{{"outer inner", "x"}},
		},
		{
			name:  "nested table is counted in document order",
			html:  `<table><tr><td>outer <table><tr><td>inner</td></tr></table></td><td>x</td></tr></table>`,
			index: 1,
			want:  Grid{{"inner"}},
		},
		{
			name: "fragment without html and body",
			html: `<tr><td>stray</td></tr><table><tr><th>Only</th></tr></table>`,
			want: Grid{{"Only"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Extract(tt.html, tt.index)
			if err != nil {
				t.Fatalf("Extract() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Extract() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtract_RowCountMatchesRowElements(t *testing.T) {
	html := `<table><tr><td>1</td></tr><tr><td>2</td></tr><tr><td>3</td></tr><tr><td>4</td></tr></table>`

	got, err := Extract(html, 0)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if got.Rows() != 4 || got.Columns() != 1 {
		t.Errorf("expected 4x1 grid, got %dx%d", got.Rows(), got.Columns())
	}
}

func TestExtract_Errors(t *testing.T) {
	tests := []struct {
		name    string
		html    string
		index   int
		wantErr error
	}{
		{name: "negative index", html: resultsPage, index: -1, wantErr: ErrInvalidArgument},
		{name: "empty document", html: "", wantErr: ErrParse},
		{name: "whitespace document", html: " \n\t ", wantErr: ErrParse},
		{name: "plain text", html: "Name,Score\nA. Skater,55.2", wantErr: ErrParse},
		{name: "no tables", html: "<p>No results yet</p>", wantErr: ErrNotFound},
		{name: "no tables at any index", html: "<p>No results yet</p>", index: 3, wantErr: ErrNotFound},
		{name: "index past last table", html: resultsPage, index: 2, wantErr: ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Extract(tt.html, tt.index)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Extract() error = %v, want %v", err, tt.wantErr)
			}
			if got != nil {
				t.Errorf("expected no partial grid, got %q", got)
			}
		})
	}
}

func TestListTables(t *testing.T) {
	got, err := ListTables(resultsPage)
	if err != nil {
		t.Fatalf("ListTables() error = %v", err)
	}

	want := []TableSummary{
		{Index: 0, Rows: 1, Columns: 2},
		{Index: 1, Caption: "Men's Free Skating", Rows: 4, Columns: 3},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ListTables() = %+v, want %+v", got, want)
	}
}

func TestListTables_NoTables(t *testing.T) {
	got, err := ListTables("<p>nothing here</p>")
	if err != nil {
		t.Fatalf("ListTables() error = %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}

	if _, err := ListTables(""); !errors.Is(err, ErrParse) {
		t.Errorf("expected ErrParse, got %v", err)
	}
}
