// Package server provides the MCP server context, the streamable HTTP
// server, health checks and the dedicated metrics server for slotbook.
//
// ServerContext carries the booking.Scheduler, the Google sign-in session,
// the read-only flag and the instrumentation handles shared by all tool
// handlers.
//
// HTTPServer mounts the MCP streamable HTTP transport on /mcp next to the
// Kubernetes-style probes:
//   - /healthz: liveness
//   - /readyz: readiness, false while shutting down
//   - /healthz/detailed: uptime plus sign-in state and write mode
//
// MetricsServer exposes Prometheus metrics on its own port.
package server
