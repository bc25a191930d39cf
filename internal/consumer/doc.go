// Package consumer contains the built-in subscribers of the event bus.
//
// The main components are:
//
//   - [Console]: Prints each status event to a writer as a formatted block
//   - [SSEServer]: Streams events to browsers via Server-Sent Events and
//     serves the embedded dashboard and prometheus metrics
//
// Consumers only depend on the bus's subscribe contract; they never touch
// the scheduler or the state store.
package consumer
