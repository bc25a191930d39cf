// Package state tracks what each provider's feed looked like the last time
// it was polled: the HTTP cache validators for conditional requests, and
// the updated timestamp recorded for every entry id already observed.
//
// The [Store] answers the change-detection question (is this entry new,
// updated, or unchanged?) by exact string comparison of updated timestamps.
//
// Concurrency: the provider map is shared across polling goroutines, so
// creation is synchronized. The per-provider state itself is written only
// by the single goroutine that polls that provider; this confinement is a
// contract of the scheduler, not an accident.
package state
