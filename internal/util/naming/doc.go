// Package naming centralizes the naming scheme for fleet resources.
//
// All guests created by a batch follow a consistent, deterministic naming
// pattern so that re-runs resolve to the same names and idempotency checks
// can match guests by name.
package naming
