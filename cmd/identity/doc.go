// Package identity owns members and the credential check that turns a
// login id and password into a Member.
//
// Stores come in two flavours: MemoryStore for development and tests, and
// PostgresStore over a caller-owned pgx pool. Both report failures through
// the sentinel kinds in kinds.go so the HTTP layer can map them to status
// codes without knowing the backend.
package identity
