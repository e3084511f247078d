package extract

import (
	"regexp"
	"strings"
)

// Name is a parsed patient name.
type Name struct {
	First string
	Last  string
	Nick  string
}

var nickRe = regexp.MustCompile(`"([^"]+)"`)

// ParseName splits a free-text full name that may embed a quoted nickname,
// e.g. `Danny "Dboy" Boyer`. Only the first quoted substring is treated as
// the nickname. With two or more remaining parts, everything after the
// first becomes the surname; multi-word surnames stay intact, and a middle
// name folds into the surname (accepted ambiguity).
func ParseName(fullText string) Name {
	var n Name

	rest := fullText
	if m := nickRe.FindStringSubmatch(fullText); m != nil {
		n.Nick = m[1]
		rest = strings.Replace(fullText, m[0], "", 1)
	}

	parts := strings.Fields(rest)
	switch {
	case len(parts) >= 2:
		n.First = parts[0]
		n.Last = strings.Join(parts[1:], " ")
	case len(parts) == 1:
		n.First = parts[0]
	}
	return n
}

// SplitName is the plain variant used for an authoritative "Name" value
// from the structured detail table, which never carries a quoted nickname.
func SplitName(text string) (first, last string) {
	parts := strings.Fields(text)
	switch {
	case len(parts) >= 2:
		return parts[0], strings.Join(parts[1:], " ")
	case len(parts) == 1:
		return parts[0], ""
	}
	return "", ""
}
