package banter

import (
	"strings"
	"testing"
)

func TestLoadEmbeddedTable(t *testing.T) {
	tbl := Load()

	// round_intro is skipped: it deliberately carries an empty template so
	// some rounds open without a flavor line.
	for _, category := range []string{
		"intro", "bleed_tick", "death_bleed",
		"bite_hit", "bite_miss", "bite_bleed", "death_bite",
		"fight_hit", "fight_crit", "fight_miss", "death_fight",
		"stalemate",
	} {
		if tbl.PickOr(category, "") == "" {
			t.Errorf("category %q has no templates", category)
		}
	}
}

func TestParseRejectsBadJSON(t *testing.T) {
	if _, err := Parse([]byte("not json")); err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestPickOrFallsBack(t *testing.T) {
	tbl, err := Parse([]byte(`{"greeting": ["hello"]}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := tbl.Pick("greeting"); got != "hello" {
		t.Fatalf("expected the single template, got %q", got)
	}
	if got := tbl.PickOr("missing", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
}

func TestFormatSubstitutesBindings(t *testing.T) {
	got := Format("[attacker] hits [target] for [dmg]. [target] down.", map[string]string{
		"attacker": "Alice",
		"target":   "Bob",
		"dmg":      "12",
	})
	want := "Alice hits Bob for 12. Bob down."
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
	if strings.Contains(got, "[") {
		t.Fatalf("unsubstituted placeholder in %q", got)
	}
}

func TestFormatLeavesUnknownPlaceholders(t *testing.T) {
	got := Format("[player] waits. [unknown]", map[string]string{"player": "Cleo"})
	if got != "Cleo waits. [unknown]" {
		t.Fatalf("unexpected result %q", got)
	}
}
