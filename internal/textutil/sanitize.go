package textutil

import "strings"

// maxTitleRunes caps sanitized titles so the resulting output paths stay
// within filesystem name limits even with an appended video id and extension.
const maxTitleRunes = 200

// titleReplacer removes characters that are invalid in filenames on at least
// one supported platform.
var titleReplacer = strings.NewReplacer(
	"<", "",
	">", "",
	":", "",
	"\"", "",
	"/", "",
	"\\", "",
	"|", "",
	"?", "",
	"*", "",
)

// SanitizeTitle turns an arbitrary video title into a safe base filename.
// Invalid characters are stripped, surrounding whitespace is trimmed, and the
// result is capped at 200 runes. Empty input yields "video".
func SanitizeTitle(title string) string {
	title = strings.TrimSpace(titleReplacer.Replace(title))
	if title == "" {
		return "video"
	}
	runes := []rune(title)
	if len(runes) > maxTitleRunes {
		title = strings.TrimSpace(string(runes[:maxTitleRunes]))
	}
	if title == "" {
		return "video"
	}
	return title
}
