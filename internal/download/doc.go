// Package download implements the fetch stage of the processing pipeline.
//
// The fetcher resolves a queue item's source into a local media file inside
// the item's staging workspace. Remote URLs go through the yt-dlp collaborator
// (metadata probe first, then download with progress); local files are copied
// in and probed with ffprobe for duration. Either way the stage records the
// media path, its duration, and the metadata the organizer later uses for
// library placement.
package download
