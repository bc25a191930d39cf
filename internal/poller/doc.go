// Package poller drives the fetch-parse-detect-publish cycle for every
// configured status-page provider.
//
// The main components are:
//
//   - [Client]: Conditional HTTP fetcher with a shared concurrency cap
//   - [Scheduler]: One independent polling goroutine per provider, with
//     staggered startup, jittered intervals, and capped exponential backoff
//   - [FetchResult]: Outcome of a single feed fetch
//
// Each provider's loop is isolated: an error or panic in one cycle backs
// that provider off and touches nothing else. Cancellation of the start
// context interrupts both sleeps and in-flight fetches promptly.
package poller
