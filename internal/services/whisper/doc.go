// Package whisper wraps the Whisper CLI used during transcription.
//
// It builds the model/device/output arguments, bounds runs with the
// configured timeout, and derives the SRT path Whisper writes so the
// transcription stage can verify output without parsing tool logs. Tests can
// swap in a command runner to avoid executing the real binary.
package whisper
