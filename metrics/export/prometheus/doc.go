// Package prometheus exposes the manager's counters in Prometheus text
// exposition format without taking a dependency on the Prometheus client.
package prometheus
