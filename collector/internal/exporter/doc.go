// Package exporter exposes collector metrics at /metrics in the Prometheus
// text format. Families are built as client_model protobufs and written with
// expfmt; there is no registry, each scrape reads the collector directly.
package exporter
