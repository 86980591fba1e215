// Package webfetch retrieves web pages over HTTP and HTTPS.
//
// [HTTPFetcher] implements [Fetcher], the collaborator the table extractor
// uses to obtain HTML. It normalises partial URLs, follows redirects, limits
// the response size, decodes the body to UTF-8 and honours context
// cancellation. Every failure wraps [ErrFetch].
//
// [NewWebFetchTool] exposes the same fetcher as a tool that returns the page
// converted to Markdown.
package webfetch
