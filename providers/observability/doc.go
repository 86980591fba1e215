// Package observability defines the tracing, metrics and logging interfaces
// used by tablescrape, together with the attribute keys they share.
//
// The central entry point is [Provider], which composes [Tracer], [Metrics]
// and [Logger] into a single injectable dependency. An active [Provider] and
// [Span] travel through a [context.Context]; attach them with
// [ContextWithObserver] and [ContextWithSpan] and read them back with
// [ObserverFromContext] and [SpanFromContext].
//
// semconv.go holds the attribute, span, event and metric names.
package observability
