// Package event defines the status event model and the in-process fan-out
// bus that decouples the poll scheduler from its consumers.
//
// The main components are:
//
//   - [StatusEvent]: Immutable record of one detected incident change
//   - [Bus]: Broadcasts every published event to every active subscription
//   - [Subscription]: A subscriber's independently ordered delivery queue
//
// Each subscription buffers without bound and is drained through an
// unbuffered channel, so publishers never block on slow consumers and no
// subscriber ever drops an event it was registered for. A subscription must
// be closed by its owner to release its registry entry.
package event
