// Package ffmpeg wraps the two ffmpeg invocations the pipeline needs: mixing
// the translated audio over the original track while copying the video
// stream untouched, and converting thumbnail images between formats.
package ffmpeg
