// Package language provides unified language code normalization.
//
// All language conversions (ISO 639-1, ISO 639-2, display names, CJK
// classification) are consolidated here so the transcriber, translator, and
// renderer agree on what a language code means.
package language
