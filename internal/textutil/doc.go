// Package textutil provides text processing utilities shared across the
// pipeline: filename sanitization for library placement, script detection and
// ASCII ratio checks used to reject untranslated lines, and the punctuation
// conversion applied to CJK subtitle text.
package textutil
