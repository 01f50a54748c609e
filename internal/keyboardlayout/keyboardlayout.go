// Package keyboardlayout implements the KeyboardLayout oracle of
// spec.md §6: a case-insensitive name<->code mapping, seeded from
// go-evdev's own KEY_*/BTN_* tables, plus the DISABLE_CODE sentinel.
package keyboardlayout

import (
	"strings"

	evdev "github.com/holoplot/go-evdev"
)

// DisableCode is the sentinel output code meaning "consume but do not
// emit" (spec §6).
const DisableCode = -1

const disableName = "disable"

// Layout answers symbolic-name <-> integer-code lookups, case
// insensitively, plus reverse lookups. It is an explicit collaborator
// (spec §9: "expose as explicit collaborators, not module-level
// globals") rather than a package-level singleton.
type Layout struct {
	byName map[string]int
	byCode map[int]string
}

// New builds a Layout from go-evdev's KEYFromString and BTNFromString
// tables, so every evdev-known key and button symbol resolves without a
// hand-maintained table.
func New() *Layout {
	l := &Layout{
		byName: make(map[string]int),
		byCode: make(map[int]string),
	}

	for code, name := range evdev.KEYFromString {
		l.add(string(name), int(code))
	}
	for code, name := range evdev.BTNFromString {
		l.add(string(name), int(code))
	}

	l.byName[disableName] = DisableCode
	l.byCode[DisableCode] = disableName

	return l
}

func (l *Layout) add(name string, code int) {
	lower := strings.ToLower(name)
	if _, exists := l.byName[lower]; !exists {
		l.byName[lower] = code
	}
	if _, exists := l.byCode[code]; !exists {
		l.byCode[code] = name
	}
}

// Get resolves a key name to its integer code, case-insensitively.
// Returns (0, false) if unknown.
func (l *Layout) Get(name string) (int, bool) {
	code, ok := l.byName[strings.ToLower(name)]
	return code, ok
}

// GetName resolves an integer code back to its canonical name.
func (l *Layout) GetName(code int) (string, bool) {
	name, ok := l.byCode[code]
	return name, ok
}

// CorrectCase returns the canonical-cased spelling of a key name, or
// the input unchanged if it is not known. Idempotent:
// CorrectCase(CorrectCase(x)) == CorrectCase(x).
func (l *Layout) CorrectCase(name string) string {
	code, ok := l.Get(name)
	if !ok {
		return name
	}
	canonical, ok := l.GetName(code)
	if !ok {
		return name
	}
	return canonical
}
