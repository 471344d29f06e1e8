// Package telemetry defines the Prometheus metrics of the chat gateway.
package telemetry
