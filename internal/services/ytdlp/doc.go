// Package ytdlp mediates access to the yt-dlp CLI used during fetching.
//
// It normalizes command invocation, parses --newline progress output,
// downloads source-language caption sidecars next to the video, and retries
// without the configured cookies file when an authenticated attempt fails.
//
// Prefer this package over ad-hoc exec.Command usage when interacting with
// yt-dlp so progress reporting and timeout handling remain consistent.
package ytdlp
