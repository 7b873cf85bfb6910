// Package transcription implements the transcribe stage of the processing
// pipeline.
//
// The stage produces a source-language SRT for the fetched media. It prefers
// work that already exists: a transcript left by an earlier run, or a caption
// sidecar the downloader saved, is reused when it is substantial and spans
// most of the media. Only when no usable transcript is found does the stage
// invoke the whisper collaborator.
package transcription
