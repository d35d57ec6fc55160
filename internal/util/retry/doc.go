// Package retry provides exponential backoff retry logic for transient failures
// and interval polling for readiness waits.
//
// The [WithExponentialBackoff] function retries an operation with configurable
// max attempts, initial delay, and maximum delay. It is used for SSH dials.
// [Poll] checks a condition at a fixed interval until it holds or a timeout
// expires; it replaces fixed sleeps while waiting for servers, containers and
// BGP sessions. Either stops early on an error marked with [Fatal].
package retry
