package email

import "regexp"

var nonAlnum = regexp.MustCompile(`[^0-9a-zA-Z]+`)

// Clean turns s into a folder name: every run of characters outside
// [0-9A-Za-z] becomes a single underscore.
func Clean(s string) string {
	return nonAlnum.ReplaceAllString(s, "_")
}
