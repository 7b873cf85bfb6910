// Package ffmpeg wraps the ffmpeg and ffprobe binaries used for media
// inspection and subtitle burning.
//
// Inspect shells out to ffprobe and decodes its JSON report; Burn renders a
// styled subtitle track into the video stream while re-encoding, parsing
// -progress output into typed updates. Tests can swap the command constructor
// to avoid executing the real binaries.
package ffmpeg
