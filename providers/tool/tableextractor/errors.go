package tableextractor

import (
	"errors"

	"github.com/leofalp/tablescrape/providers/tool/webfetch"
)

var (
	// ErrFetch reports that the page could not be retrieved.
	ErrFetch = webfetch.ErrFetch

	// ErrParse reports input that cannot be read as markup.
	ErrParse = errors.New("cannot parse HTML")

	// ErrNotFound reports that no table exists at the requested index.
	ErrNotFound = errors.New("table not found")

	// ErrInvalidArgument reports a negative table index or an unknown output format.
	ErrInvalidArgument = errors.New("invalid argument")
)
