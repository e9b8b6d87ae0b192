package room

import "unicode"

const (
	minNameLen = 4
	maxNameLen = 10
)

// ValidRoomName reports whether name is 4-10 characters with no
// whitespace of any kind.
func ValidRoomName(name string) bool {
	return validName(name)
}

// ValidDisplayName applies the same shape rule as room names.
func ValidDisplayName(name string) bool {
	return validName(name)
}

func validName(name string) bool {
	n := len([]rune(name))
	if n < minNameLen || n > maxNameLen {
		return false
	}
	for _, r := range name {
		if unicode.IsSpace(r) {
			return false
		}
	}
	return true
}
