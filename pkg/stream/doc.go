// Package stream provides a minimal push-based sequence abstraction with
// demand-driven backpressure
//
// A Publisher emits values to a Subscriber only as far as the Subscriber
// has requested through its Subscription, followed by at most one terminal
// signal (completion or error). Time-based sources and operators take their
// scheduler from the subscription context, so tests can substitute virtual
// time without global state
package stream
