// Package translation turns a transcript in one language into an aligned
// transcript in another.
//
// The engine splits the source into overlapping chunks, fans them out to a
// Translator (hosted LLM backend or interactive session) under a bounded
// worker pool and request-rate limiter, styles each reply, and merges results
// into a pre-sized index-addressed buffer where every block index is written
// at most once. Alignment is the whole game: every stage preserves block
// count and order, replies that break the exactly-one-line-per-block contract
// are re-issued once with stricter instructions and then escalated, and
// blocks that still read like the source language after the repair budget is
// spent are reported rather than silently shipped.
package translation
