package xpath

import (
	"net/url"
	"strings"
)

// Filename takes the path parameter p and returns the bare file name it designates.
// It returns false when p is empty or tries to escape the images directory.
func Filename(p string) (string, bool) {
	cp, err := url.PathUnescape(p)
	if err == nil {
		p = cp
	}

	if !Bare(p) {
		return "", false
	}
	return p, true
}

// Bare returns true when s can be used as is in a file name:
// it is not empty and holds neither a separator nor a parent reference.
func Bare(s string) bool {
	if s == "" || s == "." {
		return false
	}
	return !strings.ContainsAny(s, `/\`) && !strings.Contains(s, "..")
}

// Ext returns the extension of the given file name without the leading dot.
// Only the part after the last dot is considered.
func Ext(filename string) string {
	i := strings.LastIndexByte(filename, '.')
	if i < 0 {
		return ""
	}
	return filename[i+1:]
}
