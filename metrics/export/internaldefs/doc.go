// Package internaldefs holds the shared counter definitions consumed by the
// prometheus and otel exporters. It is not intended for direct use.
package internaldefs
