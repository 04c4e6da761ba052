package quests

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nathoo/questrun/engine/errs"
	"github.com/nathoo/questrun/types"
)

var created = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

func TestParseDifficulty(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"Trivial", 1, true},
		{"hard", 4, true},
		{"SUICIDE", 5, true},
		{"3", 3, true},
		{"0", 0, false},
		{"6", 0, false},
		{"epic", 0, false},
	}
	for _, tt := range tests {
		got, err := ParseDifficulty(tt.in)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("ParseDifficulty(%q) = %d, %v", tt.in, got, err)
		}
	}
}

func TestDecode(t *testing.T) {
	fm := map[string]any{
		"difficulty":      "Hard",
		"skill":           "coding",
		"secondary_skill": "writing",
		"high_stakes":     true,
		"xp_reward":       90,
		"deadline":        "2026-05-05T18:00:00Z",
		"created":         "2026-05-04T09:00:00Z",
		"tags":            []any{"x"},
	}
	q, err := Decode("ship-it", fm, "body\n")
	if err != nil {
		t.Fatal(err)
	}
	if q.Name != "ship-it" || q.Status != types.QuestActive || q.Difficulty != 4 {
		t.Errorf("quest = %+v", q)
	}
	if !q.HighStakes || q.XPReward != 90 || q.SecondarySkill != "writing" {
		t.Errorf("quest = %+v", q)
	}
	if q.Deadline == nil || q.Deadline.Hour() != 18 || !q.Created.Equal(created) {
		t.Errorf("times: %v %v", q.Deadline, q.Created)
	}

	if _, err := Decode("bad", map[string]any{"deadline": "tomorrow"}, ""); err == nil {
		t.Error("expected error for unparseable deadline")
	}
}

func TestEncode_KeepsForeignKeys(t *testing.T) {
	fm := map[string]any{"tags": []any{"home"}, "high_stakes": true}
	q := types.Quest{Ref: "r", Name: "Laundry", Status: types.QuestCompleted, Difficulty: 2, CompletedAt: &created}
	out := Encode(q, fm)
	if out["tags"] == nil {
		t.Error("foreign key dropped")
	}
	if _, ok := out["high_stakes"]; ok {
		t.Error("cleared flag kept")
	}
	if out["difficulty"] != "Easy" || out["completed_at"] != "2026-05-04T09:00:00Z" {
		t.Errorf("fm = %v", out)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		keys int
		body string
		err  bool
	}{
		{"plain note", "just text\n", 0, "just text\n", false},
		{"frontmatter", "---\nstatus: active\ndifficulty: 3\n---\n# Title\n", 2, "# Title\n", false},
		{"empty frontmatter", "---\n---\nbody", 0, "body", false},
		{"no body", "---\nstatus: active\n---", 1, "", false},
		{"crlf", "---\r\nstatus: active\r\n---\r\nbody\r\n", 1, "body\n", false},
		{"unterminated", "---\nstatus: active\n", 0, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fm, body, err := Parse([]byte(tt.in))
			if tt.err {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if len(fm) != tt.keys || body != tt.body {
				t.Errorf("fm = %v, body = %q", fm, body)
			}
		})
	}
}

func TestDecode_NumericDifficultyFromYAML(t *testing.T) {
	fm, _, err := Parse([]byte("---\ndifficulty: 5\nxp_reward: 12\n---\n"))
	if err != nil {
		t.Fatal(err)
	}
	q, err := Decode("boss", fm, "")
	if err != nil {
		t.Fatal(err)
	}
	if q.Difficulty != 5 || q.XPReward != 12 {
		t.Errorf("quest = %+v", q)
	}
}

func testStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("Get(missing) = %v", err)
	}
	q := types.Quest{Ref: "laundry", Name: "Laundry", Status: types.QuestActive, Difficulty: 2, Skill: "chores", Created: created, Body: "Fold it too.\n"}
	if err := s.Put(ctx, q); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, types.Quest{Ref: "alpha", Name: "Alpha", Status: types.QuestFailed, Difficulty: 1}); err != nil {
		t.Fatal(err)
	}

	got, err := s.Get(ctx, "laundry")
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Laundry" || got.Difficulty != 2 || got.Skill != "chores" || got.Body != q.Body || !got.Created.Equal(created) {
		t.Errorf("Get = %+v", got)
	}

	all, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || all[0].Ref != "alpha" {
		t.Errorf("List = %+v", all)
	}
	if active := Active(all); len(active) != 1 || active[0].Ref != "laundry" {
		t.Errorf("Active = %+v", active)
	}

	if err := s.Delete(ctx, "laundry"); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, "laundry"); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("second delete = %v", err)
	}
	if err := s.Put(ctx, types.Quest{Ref: "../escape"}); err == nil {
		t.Error("path ref accepted")
	}
}

func TestMemoryStore(t *testing.T) {
	testStore(t, NewMemoryStore())
}

func TestDirStore(t *testing.T) {
	s, err := NewDirStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	testStore(t, s)
}

func TestDirStore_PreservesNote(t *testing.T) {
	dir := t.TempDir()
	note := "---\ndifficulty: Medium\nskill: coding\ntags:\n  - work\n---\n# Refactor\n\nSplit the parser.\n"
	if err := os.WriteFile(filepath.Join(dir, "refactor.md"), []byte(note), 0o644); err != nil {
		t.Fatal(err)
	}
	s, _ := NewDirStore(dir)
	ctx := context.Background()

	q, err := s.Get(ctx, "refactor")
	if err != nil {
		t.Fatal(err)
	}
	q.Status = types.QuestCompleted
	q.CompletedAt = &created
	if err := s.Put(ctx, q); err != nil {
		t.Fatal(err)
	}

	data, _ := os.ReadFile(filepath.Join(dir, "refactor.md"))
	text := string(data)
	for _, want := range []string{"status: completed", "tags:", "- work", "completed_at:", "# Refactor\n\nSplit the parser.\n"} {
		if !strings.Contains(text, want) {
			t.Errorf("note missing %q:\n%s", want, text)
		}
	}
}
