// Package plot renders CSV data as a line or bar chart and publishes the
// renderer as the generate_plot tool.
//
// The CSV is usually the output of extract_competition_table or
// get_json_data. Columns whose cells hold a list of records, such as the
// JSON text get_json_data writes for nested arrays, are exploded so each
// record becomes a row and its fields become columns. Rows whose Y value is
// not a finite number are dropped before plotting.
//
// Failures wrap [ErrInvalidArgument], [ErrNoData] or [ErrRender].
package plot
