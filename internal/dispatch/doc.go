// Package dispatch sends segments to the transcription provider.
//
// An Engine owns one weighted semaphore (the concurrency cap) and one token
// bucket (the call-initiation rate). Every attempt, retries included, must
// hold a semaphore slot and a limiter permit before it starts, and every
// attempt runs under its own deadline. Failed attempts back off
// exponentially. A segment that exhausts its attempts yields an error result
// for that segment alone; siblings keep going. Results come back in input
// order no matter when each segment finished.
//
// One Engine is shared by every file in a run so the provider quota is
// respected globally. Engines are plain values: tests build as many as they
// like with injected limiters and sleepers.
package dispatch
