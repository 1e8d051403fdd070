package editor

import "strings"

// Slugify derives a unit id from its English name: lower-cased, spaces
// turned into hyphens, commas dropped.
func Slugify(name string) string {
	s := strings.ToLower(name)
	s = strings.ReplaceAll(s, " ", "-")
	return strings.ReplaceAll(s, ",", "")
}
