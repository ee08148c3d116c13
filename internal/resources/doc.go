// Package resources provides MCP resources exposing the signed-in account
// and the calendar it schedules into. Resources are read-only data sources
// that MCP clients can fetch to give the assistant context before it calls
// a tool.
package resources
