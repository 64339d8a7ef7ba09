// Package ytdlp wraps yt-dlp for two pipeline concerns: resolving a video's
// title and fetching the source media (merged mp4 plus thumbnail) with
// format selection biased to a preferred audio language. It also bootstraps
// a cookies file from an installed browser so age- or region-gated videos
// stay reachable.
package ytdlp
