// Package tableextractor turns an HTML table into rows of text.
//
// [Extract] selects a table by zero-based position among all <table>
// elements of a document and returns its cells as a [Grid]. [Serialize]
// renders a Grid as CSV or JSON. Both are pure; [Extractor] adds a
// [webfetch.Fetcher] and backs the extract_competition_table and list_tables
// tools.
//
// Failures wrap one of [ErrFetch], [ErrParse], [ErrNotFound] or
// [ErrInvalidArgument]; test them with errors.Is.
package tableextractor
