package commands

import "fmt"

// Code is a 32-bit NEC transmit code or one of the reserved sentinels below.
type Code uint32

const (
	CodeStatus  Code = 0
	CodeUnknown Code = 1
	CodeNone    Code = 2
)

// IsTransmit reports whether c is a real transmit code rather than a sentinel.
func (c Code) IsTransmit() bool {
	return c > CodeNone
}

func (c Code) String() string {
	switch c {
	case CodeStatus:
		return "status"
	case CodeUnknown:
		return "unknown"
	case CodeNone:
		return "none"
	default:
		return fmt.Sprintf("%#08x", uint32(c))
	}
}

// Entry is one named remote command.
type Entry struct {
	Name         string `json:"name"`
	Code         Code   `json:"code"`
	ChangesState bool   `json:"changes_state"`
}

// Table maps command names to codes. It is read-only after construction.
type Table struct {
	entries []Entry
	index   map[string]int
}

// NewTable builds a table from entries in the given order. Later duplicates
// replace the code of an earlier name but keep its position.
func NewTable(entries []Entry) *Table {
	t := &Table{
		entries: make([]Entry, 0, len(entries)),
		index:   make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		if i, ok := t.index[e.Name]; ok {
			t.entries[i] = e
			continue
		}
		t.index[e.Name] = len(t.entries)
		t.entries = append(t.entries, e)
	}
	return t
}

// Resolve returns the entry for name. Unknown names map to CodeUnknown.
func (t *Table) Resolve(name string) Entry {
	i, ok := t.index[name]
	if !ok {
		return Entry{Name: name, Code: CodeUnknown}
	}
	return t.entries[i]
}

// Names returns command names in table order.
func (t *Table) Names() []string {
	out := make([]string, len(t.entries))
	for i, e := range t.entries {
		out[i] = e.Name
	}
	return out
}

// Entries returns a copy of the table in order.
func (t *Table) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

func (t *Table) Len() int {
	return len(t.entries)
}

var soundbar = NewTable([]Entry{
	{Name: "status", Code: CodeStatus},
	{Name: "power", Code: 0x807F807F, ChangesState: true},
	{Name: "mute", Code: 0x807FCC33},
	{Name: "volume_up", Code: 0x807FC03F},
	{Name: "volume_down", Code: 0x807F10EF},
	{Name: "previous", Code: 0x807FA05F},
	{Name: "next", Code: 0x807F609F},
	{Name: "play_pause", Code: 0x807FE01F},
	{Name: "input", Code: 0x807F40BF, ChangesState: true},
	{Name: "treble_up", Code: 0x807FA45B},
	{Name: "treble_down", Code: 0x807FE41B},
	{Name: "bass_up", Code: 0x807F20DF},
	{Name: "bass_down", Code: 0x807F649B},
	{Name: "pair", Code: 0x807F906F},
	{Name: "flat", Code: 0x807F48B7},
	{Name: "music", Code: 0x807F946B},
	{Name: "dialog", Code: 0x807F54AB},
	{Name: "movie", Code: 0x807F14EB},
})

// Default returns the soundbar remote table shared by the whole process.
func Default() *Table {
	return soundbar
}
