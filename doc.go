// Promptrelay is a service which relays prompts to a large language
// model and keeps an eye on who is asking.
//
// Each request is enriched with geolocation of the client IP address.
// Completed calls are put into a bounded in-memory log which is used
// to compute rolling usage analytics: requests per address, per
// country, token consumption and response latency.
//
// Tool itself is organized into 3 logical parts:
//
// Relaylib
//
// relaylib is a main package of the application. It contains Relay
// struct which owns usage log, request counters and a geolocation
// resolver with a chain of pluggable providers. It also can build an
// http.Handler with the API.
//
// Providers and LLM
//
// providers package has implementations of geolocation providers:
// online services and a local MaxMind database. llm package has
// clients of upstream models: OpenAI compatible API and Gemini.
//
// Promptrelay
//
// A main package itself wires relaylib, providers and llm together. It
// is a full example with CLI, configuration and logging. Resulting
// binary starts http server and you can use it as is.
package main
