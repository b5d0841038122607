// This package provides a set of structs and functions which are used
// to relay prompts to LLM providers and to keep a short memory of what
// was relayed.
//
// relaylib is a core of the promptrelay project. You can treat the
// rest of the application as an _example_ on how to use this library:
// how to pass parameters from HTTP requests, how to generate responses,
// how to implement geolocation providers and upstream clients.
//
// Relay is a main entity of the relaylib. It owns 3 shared resources:
// a bounded usage log of completed requests, a per-IP request counter
// and a geolocation cache. Each incoming prompt is enriched with
// geolocation data of the caller, sent upstream and, if upstream
// has answered properly, stored as a UsageRecord. Summaries are
// computed on demand from a snapshot of the log, nothing is
// precomputed.
package relaylib
