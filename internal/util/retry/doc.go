// Package retry provides exponential backoff retry logic for transient failures.
//
// The [WithExponentialBackoff] function retries an operation with configurable
// max attempts, initial delay, maximum delay, and jitter. It is used for
// Proxmox VE API calls that may fail transiently (rate limits, resource locks).
package retry
