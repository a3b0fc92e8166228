// Package logging configures slog for panamax-search.
//
// Interactive commands log to stderr at warn level unless -v flags or the
// log.level setting lower it. `serve` logs to a rotating file only, since
// stdout carries the MCP protocol. `logs` reads that file back.
package logging
