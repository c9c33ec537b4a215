package scheme

import "strings"

// Classification is the verdict for a class name found in a class-definition
// table, before any marker token is attached to it.
type Classification int

const (
	ClassUnknown Classification = iota
	ClassObfuscated
	ClassYarn
	ClassIntermediary
	// ClassDotted is a dotted name that could be Mojang or Searge. The site
	// renders both identically at class level.
	ClassDotted
)

func (c Classification) String() string {
	switch c {
	case ClassObfuscated:
		return "obfuscated"
	case ClassYarn:
		return "yarn"
	case ClassIntermediary:
		return "intermediary"
	case ClassDotted:
		return "dotted"
	default:
		return "unknown"
	}
}

// ClassifyClassName guesses which scheme produced a class name.
// Checks run in a fixed order and the first one that fires wins.
func ClassifyClassName(text string) Classification {
	switch {
	case text == "":
		return ClassUnknown
	case IsObfuscated(text):
		return ClassObfuscated
	case !HasRootPrefix(text):
		return ClassUnknown
	case strings.Contains(text, "Client") || strings.Contains(text, "Impl"):
		return ClassYarn
	case strings.Contains(text, "class_"):
		return ClassIntermediary
	default:
		return ClassDotted
	}
}
