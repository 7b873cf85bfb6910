// Package subtitles owns the timed transcript model and its presentation
// forms.
//
// A Transcript is an ordered sequence of Blocks with stable, contiguous
// indices and immutable timing. The SRT codec parses and serializes
// transcripts; the composer aligns two language tracks into a
// PresentationTrack; the renderer turns a track plus a StyleProfile into a
// deterministic ASS document ready for burning.
//
// Block timing is never touched after parse. Translation and styling replace
// block text wholesale and leave everything else alone, which is what keeps
// the translated track frame-accurate against the original.
package subtitles
