// Package verify subscribes to a sequence and checks its signals against an
// ordered list of expectations. Scenarios are declared with a builder, then
// triggered with one of the Verify methods. Steps run on the calling
// goroutine, so a test failure raised inside an inspection callback stops
// the test exactly as it would anywhere else.
//
// Time-based sequences can be verified against virtual time: WithVirtualTime
// places a timing.Virtual scheduler in the subscription context, and the
// ThenAwait and ExpectNoEvent steps advance it instead of sleeping.
package verify
