package commands

import (
	"testing"

	"github.com/danmuck/snowdon/internal/testutil/testlog"
)

func TestDefaultTableResolvesKnownCommands(t *testing.T) {
	testlog.Start(t)

	cases := []struct {
		name    string
		code    Code
		changes bool
	}{
		{"status", CodeStatus, false},
		{"power", 0x807F807F, true},
		{"mute", 0x807FCC33, false},
		{"volume_up", 0x807FC03F, false},
		{"volume_down", 0x807F10EF, false},
		{"previous", 0x807FA05F, false},
		{"next", 0x807F609F, false},
		{"play_pause", 0x807FE01F, false},
		{"input", 0x807F40BF, true},
		{"treble_up", 0x807FA45B, false},
		{"treble_down", 0x807FE41B, false},
		{"bass_up", 0x807F20DF, false},
		{"bass_down", 0x807F649B, false},
		{"pair", 0x807F906F, false},
		{"flat", 0x807F48B7, false},
		{"music", 0x807F946B, false},
		{"dialog", 0x807F54AB, false},
		{"movie", 0x807F14EB, false},
	}
	table := Default()
	if table.Len() != len(cases) {
		t.Fatalf("unexpected table size: %d", table.Len())
	}
	for i, tc := range cases {
		got := table.Resolve(tc.name)
		if got.Code != tc.code || got.ChangesState != tc.changes {
			t.Fatalf("resolve %q: got code=%s changes=%v", tc.name, got.Code, got.ChangesState)
		}
		if table.Names()[i] != tc.name {
			t.Fatalf("unexpected order at %d: %q", i, table.Names()[i])
		}
	}
}

func TestResolveUnknownIsCaseSensitive(t *testing.T) {
	testlog.Start(t)

	table := Default()
	for _, name := range []string{"", "POWER", "Power", "power ", "volume-up", "bogus"} {
		got := table.Resolve(name)
		if got.Code != CodeUnknown {
			t.Fatalf("expected unknown for %q, got %s", name, got.Code)
		}
		if got.ChangesState {
			t.Fatalf("unknown command %q must not change state", name)
		}
	}
}

func TestCodeIsTransmit(t *testing.T) {
	for _, c := range []Code{CodeStatus, CodeUnknown, CodeNone} {
		if c.IsTransmit() {
			t.Fatalf("sentinel %s reported as transmit", c)
		}
	}
	if !Code(0x807F807F).IsTransmit() {
		t.Fatalf("expected power code to be transmit")
	}
}

func TestEntriesReturnsCopy(t *testing.T) {
	table := NewTable([]Entry{{Name: "a", Code: 10}, {Name: "b", Code: 11}, {Name: "a", Code: 12}})
	entries := table.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected duplicate name to collapse, got %d entries", len(entries))
	}
	if entries[0].Code != 12 {
		t.Fatalf("expected later duplicate to win, got %s", entries[0].Code)
	}
	entries[0].Code = 99
	if table.Resolve("a").Code != 12 {
		t.Fatalf("table mutated through Entries copy")
	}
}
