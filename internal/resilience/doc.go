// Package resilience provides a circuit breaker for calls to external
// services, primarily the coaching API.
//
// The breaker moves between three states:
//   - closed: calls pass through; failures are counted
//   - open: calls fail fast with ErrOpen until the timeout elapses
//   - half-open: a bounded number of probe calls decide recovery
//
// Counts are cleared on every state transition and periodically while closed,
// so a slow trickle of old failures cannot trip the breaker.
package resilience
