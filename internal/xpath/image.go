package xpath

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	stampLayout = "20060102_150405"
	// len("20060102_150405_000")
	stampLength = len(stampLayout) + 4
	// DefaultImageExt is used when the uploaded file name has no extension.
	DefaultImageExt = "jpg"
)

// ImageFilename returns the name under which an image sent by the given station at t is stored:
// <raspberry_id>_<YYYYmmdd_HHMMSS_mmm>.<ext>
func ImageFilename(raspberryID, original string, t time.Time) string {
	ext := Ext(original)
	if ext == "" {
		ext = DefaultImageExt
	}

	return fmt.Sprintf("%s_%s_%03d.%s", raspberryID, t.Format(stampLayout), t.Nanosecond()/int(time.Millisecond), ext)
}

// ImageTimestamp extracts the time encoded by ImageFilename.
// It returns false if the name does not follow the layout.
func ImageTimestamp(filename string) (time.Time, bool) {
	name := filename
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[:i]
	}

	if len(name) < stampLength+1 || name[len(name)-stampLength-1] != '_' {
		return time.Time{}, false
	}
	stamp := name[len(name)-stampLength:]

	t, err := time.Parse(stampLayout, stamp[:len(stampLayout)])
	if err != nil {
		return time.Time{}, false
	}

	if stamp[len(stampLayout)] != '_' {
		return time.Time{}, false
	}
	ms, err := strconv.Atoi(stamp[len(stampLayout)+1:])
	if err != nil || ms < 0 {
		return time.Time{}, false
	}

	return t.Add(time.Duration(ms) * time.Millisecond), true
}

// ImageURL returns the public URL of the image served by the static route.
func ImageURL(base, filename string) string {
	return strings.TrimRight(base, "/") + "/images/" + filename
}
