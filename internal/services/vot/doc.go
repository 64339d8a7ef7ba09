// Package vot wraps the vot-cli-live tool, which produces a translated audio
// track for a video locator. The tool contract: invoked with an output
// directory and the canonical locator, it writes exactly one mp3 artifact on
// success and exits zero.
package vot
