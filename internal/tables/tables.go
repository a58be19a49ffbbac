// Package tables holds the naming and quoting conventions shared by the
// IDL parser, the fan-out writer, and the orchestrator: how a program name
// and an event/instruction name become a Postgres table, and how any
// identifier gets quoted for inclusion in a generated statement.
package tables

import (
	"regexp"
	"strings"
)

// Reserved tables every subscriber schema carries regardless of which
// programs it subscribes to (spec.md §6).
const (
	StateTable          = "_uho_state"
	TxLogsTable         = "_tx_logs"
	TokenTransfersTable = "_token_transfers"
)

var (
	acronymRe  = regexp.MustCompile(`([A-Z]+)([A-Z][a-z])`)
	boundaryRe = regexp.MustCompile(`([a-z0-9])([A-Z])`)
	nonWordRe  = regexp.MustCompile(`[^a-zA-Z0-9]+`)
)

// SnakeCase normalizes an identifier (camelCase, PascalCase, kebab-case,
// or already-snake_case) into lower_snake_case. It is idempotent:
// SnakeCase(SnakeCase(x)) == SnakeCase(x). An uppercase run followed by
// a capitalized word (e.g. "AMMPool") splits before the last capital of
// the run, so acronyms don't swallow the word that follows them.
func SnakeCase(name string) string {
	s := acronymRe.ReplaceAllString(name, "${1}_${2}")
	s = boundaryRe.ReplaceAllString(s, "${1}_${2}")
	s = nonWordRe.ReplaceAllString(s, "_")
	s = strings.ToLower(s)
	s = strings.Trim(s, "_")
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	return s
}

// TableName derives the deterministic table identifier for an event or
// instruction belonging to a program, per spec.md §2's table-name
// convention: "<program>_<event_or_instruction>", both snake_cased.
func TableName(programName, eventOrInstructionName string) string {
	return SnakeCase(programName) + "_" + SnakeCase(eventOrInstructionName)
}

// Quote escapes an identifier for safe inclusion in a double-quoted
// Postgres identifier position (table names, schema names, column names).
func Quote(identifier string) string {
	return `"` + strings.ReplaceAll(identifier, `"`, `""`) + `"`
}

// Qualified returns a schema-qualified, quoted table reference.
func Qualified(schema, table string) string {
	return Quote(schema) + "." + Quote(table)
}
