package utils

import (
	"fmt"
	"path"
	"strings"
	"time"
)

// ObjectKey builds "<prefix>/<unix-ms>_<filename>". Two uploads of the same file name
// in the same millisecond collide.
func ObjectKey(prefix, filename string, now time.Time) string {
	return fmt.Sprintf("%s/%d_%s", strings.Trim(prefix, "/"), now.UnixMilli(), SanitizeFilename(filename))
}

// SanitizeFilename drops any directory part and characters that break object keys.
func SanitizeFilename(filename string) string {
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(filename), "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "file"
	}
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, name)
}
