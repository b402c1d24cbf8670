// Package core contains the token domain: the lifecycle planner, the Manager
// that applies it against a TokenStore, configuration, errors and an
// in-memory store. Storage adapters depend on this package, never the reverse.
package core
