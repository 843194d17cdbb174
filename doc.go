// Package ldevents implements the analytics event processing pipeline shared by
// LaunchDarkly-style server-side SDKs: summarizing flag evaluations, deduplicating user
// payloads, batching, and delivering events to an events collector over HTTP, with a
// companion diagnostics channel and live Prometheus metrics.
//
// Flag evaluation, data sources, and the top-level SDK client are out of scope; this
// package only consumes the Event and User types it defines itself; see EventFactory for
// how a flag-evaluation engine would construct events to feed into it.
package ldevents
