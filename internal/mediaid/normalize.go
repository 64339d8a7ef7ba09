package mediaid

import (
	"fmt"
	"regexp"
	"strings"
)

// Category partitions items by the shape of the original locator. The output
// directory and the default stage deadline both key off it.
type Category string

const (
	CategoryLong  Category = "long-form"
	CategoryShort Category = "short-form"
)

// Video is one normalized unit of work.
type Video struct {
	// Raw is the locator exactly as supplied.
	Raw string
	// Locator is the canonical watch URL usable by the external tools, or
	// Raw unchanged when no id could be extracted.
	Locator string
	// ID is the 11-character canonical video id, empty when unparseable.
	ID string
	// Category reflects the original locator shape, not the canonical form.
	Category Category
}

var (
	shortsPattern = regexp.MustCompile(`/shorts/([0-9A-Za-z_-]{11})`)
	watchPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:v=|/)([0-9A-Za-z_-]{11})`),
		regexp.MustCompile(`youtu\.be/([0-9A-Za-z_-]{11})`),
	}
)

// Normalize parses raw into a Video. Category is decided from the original
// locator before any rewriting, so a /shorts/ link stays short-form even
// though its canonical locator is a regular watch URL.
func Normalize(raw string) Video {
	trimmed := strings.TrimSpace(raw)
	video := Video{Raw: raw, Locator: trimmed, Category: CategoryLong}

	if match := shortsPattern.FindStringSubmatch(trimmed); match != nil {
		video.Category = CategoryShort
		video.ID = match[1]
		video.Locator = canonicalLocator(match[1])
		return video
	}

	for _, pattern := range watchPatterns {
		if match := pattern.FindStringSubmatch(trimmed); match != nil {
			video.ID = match[1]
			video.Locator = canonicalLocator(match[1])
			return video
		}
	}

	return video
}

// NormalizeAll parses a batch of raw locators, preserving order.
func NormalizeAll(raws []string) []Video {
	videos := make([]Video, 0, len(raws))
	for _, raw := range raws {
		videos = append(videos, Normalize(raw))
	}
	return videos
}

// SplitLocators splits comma- or newline-delimited input into individual
// locator strings, dropping empties.
func SplitLocators(input string) []string {
	fields := strings.FieldsFunc(input, func(r rune) bool {
		return r == ',' || r == '\n' || r == '\r'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func canonicalLocator(id string) string {
	return fmt.Sprintf("https://www.youtube.com/watch?v=%s", id)
}
