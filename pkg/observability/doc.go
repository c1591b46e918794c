/*
Package observability provides Prometheus instrumentation for the storefront.

It exposes cart lifecycle hooks that count cart events, an HTTP middleware that
records request counts and latencies per route, and the exposition handler.
Metrics live on their own registry so several servers can coexist in one process.
*/
package observability
