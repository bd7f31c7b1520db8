package toolchain

import "strings"

// BoardProfile maps a human-readable board name to the toolchain's fully
// qualified board name (FQBN). Immutable; selected once per run.
type BoardProfile struct {
	Name string
	FQBN string
}

// builtinBoards is the default board catalog.
var builtinBoards = []BoardProfile{
	{Name: "Arduino Uno", FQBN: "arduino:avr:uno"},
	{Name: "Arduino Mega", FQBN: "arduino:avr:mega"},
	{Name: "Arduino Nano", FQBN: "arduino:avr:nano"},
	{Name: "Arduino Leonardo", FQBN: "arduino:avr:leonardo"},
	{Name: "Arduino Nano Every", FQBN: "arduino:megaavr:nanoevery"},
	{Name: "Arduino Due", FQBN: "arduino:sam:due"},
	{Name: "Arduino MKR Zero", FQBN: "arduino:samd:mkrzero"},
	{Name: "ESP32 Dev", FQBN: "esp32:esp32:esp32"},
	{Name: "NodeMCU 1.0 (ESP-12E Module)", FQBN: "esp8266:esp8266:nodemcuv2"},
}

// Catalog holds the known board profiles.
type Catalog struct {
	boards []BoardProfile
}

// NewCatalog creates a catalog of the built-in boards plus any extra profiles.
// An extra profile with the same name as a built-in one replaces it.
func NewCatalog(extra ...BoardProfile) *Catalog {
	boards := make([]BoardProfile, len(builtinBoards))
	copy(boards, builtinBoards)

	for _, e := range extra {
		replaced := false
		for i, b := range boards {
			if b.Name == e.Name {
				boards[i] = e
				replaced = true
				break
			}
		}
		if !replaced {
			boards = append(boards, e)
		}
	}
	return &Catalog{boards: boards}
}

// Lookup finds a board profile by its human-readable name.
// Matching is case-insensitive and ignores surrounding whitespace.
func (c *Catalog) Lookup(name string) (BoardProfile, bool) {
	name = strings.TrimSpace(name)
	for _, b := range c.boards {
		if strings.EqualFold(b.Name, name) {
			return b, true
		}
	}
	return BoardProfile{}, false
}

// All returns the catalog's board profiles in registration order.
func (c *Catalog) All() []BoardProfile {
	out := make([]BoardProfile, len(c.boards))
	copy(out, c.boards)
	return out
}
