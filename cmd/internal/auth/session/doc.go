// Package session maps opaque session tokens to authenticated principals.
//
// Manager is the in-process store: one map guarded by one mutex, no expiry,
// no I/O. Backend is the boundary the HTTP layer talks to; Local adapts a
// Manager and RedisBackend keeps the same contract in Redis.
//
// Absence is a normal outcome. An unknown, expired-by-logout, or empty token
// yields ok=false, never an error.
//
// Token transport (cookies) is handled by the caller.
package session
