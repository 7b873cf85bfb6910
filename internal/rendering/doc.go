// Package rendering implements the render stage: it composes the translated
// and original transcripts into a styled ASS track and burns it into the
// video with ffmpeg.
package rendering
