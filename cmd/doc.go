// Package cmd implements the command-line interface for slotbook.
//
// This package provides the following commands:
//   - serve: Start the MCP server to provide scheduling tools for AI assistants
//   - slots next|all: Show the next free slot or every free slot in the next 24 hours
//   - book: Book a slot for a guest
//   - cancel: Cancel the appointment starting at a UTC time
//   - upcoming: List upcoming calendar entries
//   - auth login|logout|status: Manage the Google sign-in
//   - version: Display version information
//   - generate-docs: Generate markdown documentation for all MCP tools
package cmd
