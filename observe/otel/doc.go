// Package otel provides an OpenTelemetry observer plugin for the taskgroup library.
// It records group and task lifecycle events (created, cancel, join, task
// start/finish, panic) as events on the span carried by the group context.
package otel
