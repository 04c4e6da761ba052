package loader

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/nathoo/questrun/catalog"
	"github.com/nathoo/questrun/types"
)

func writePack(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, src := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func findModifier(cat *catalog.Catalog, name string) (types.Modifier, bool) {
	i := slices.IndexFunc(cat.Modifiers, func(m types.Modifier) bool { return m.Name == name })
	if i < 0 {
		return types.Modifier{}, false
	}
	return cat.Modifiers[i], true
}

const fullPack = `
Neutral { name = "Calm", xp = 1, gold = 1, price = 1 }

Modifier "Flow State" { xp = 1.75 }
Modifier "Payday" { description = "Double gold.", gold = 2 }

Mission "night_owl" {
	kind = "hard_quest",
	name = "Night Owl",
	description = "Finish a hard quest.",
	xp = 40, gold = 30,
}

Boss(20) { name = "The Inbox Kraken", xp = 450 }
Reward(5) { xp = 200, gold = 100 }
Item "potion" { price = 35 }
Achievement "scholar" { name = "Bookworm" }
`

func TestLoad_EmptyDirReturnsBase(t *testing.T) {
	base := catalog.Default()
	cat, err := Load("", base, nil)
	if err != nil || cat != base {
		t.Fatalf("Load(\"\") = %p, %v", cat, err)
	}
}

func TestLoad_AppliesPack(t *testing.T) {
	base := catalog.Default()
	dir := writePack(t, map[string]string{"pack.lua": fullPack})

	cat, err := Load(dir, base, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cat.Neutral.Name != "Calm" || cat.Neutral.Description != base.Neutral.Description {
		t.Errorf("neutral = %+v", cat.Neutral)
	}
	flow, ok := findModifier(cat, "Flow State")
	if !ok || flow.XPMultiplier != 1.75 || flow.GoldMultiplier != 1 {
		t.Errorf("Flow State = %+v", flow)
	}
	if flow.Description == "" {
		t.Error("override without description should keep the base text")
	}
	if _, ok := findModifier(cat, "Payday"); !ok || len(cat.Modifiers) != len(base.Modifiers)+1 {
		t.Errorf("Payday not appended: %d modifiers", len(cat.Modifiers))
	}

	i := slices.IndexFunc(cat.Missions, func(m catalog.MissionDef) bool { return m.ID == "night_owl" })
	if i < 0 {
		t.Fatal("mission night_owl missing")
	}
	if m := cat.Missions[i]; m.Kind != types.MissionHardQuest || m.Target != 1 || m.Reward.Gold != 30 {
		t.Errorf("night_owl = %+v", m)
	}

	for _, b := range cat.Bosses {
		if b.Level == 20 && (b.Name != "The Inbox Kraken" || b.XPReward != 450) {
			t.Errorf("boss 20 = %+v", b)
		}
	}
	if r := cat.Reward(5); r.XP != 200 || r.Gold != 100 {
		t.Errorf("reward 5 = %+v", r)
	}
	if it, _ := cat.Item(catalog.ItemPotion); it.Price != 35 || it.Name != "Potion" {
		t.Errorf("potion = %+v", it)
	}
	for _, a := range cat.Achievements {
		if a.ID == "scholar" && a.Name != "Bookworm" {
			t.Errorf("scholar = %+v", a)
		}
	}

	// The base catalog is untouched.
	if f, _ := findModifier(base, "Flow State"); f.XPMultiplier != 1.5 {
		t.Errorf("base Flow State changed to %v", f.XPMultiplier)
	}
	if base.Reward(5).XP != 150 {
		t.Error("base rewards changed")
	}
}

func TestLoad_PackFileRunsFirst(t *testing.T) {
	dir := writePack(t, map[string]string{
		"a_missions.lua": `Mission "double" { kind = "quest_count", name = "Double", target = TARGET, xp = 5 }`,
		"pack.lua":       `TARGET = 2`,
	})
	cat, err := Load(dir, catalog.Default(), nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	i := slices.IndexFunc(cat.Missions, func(m catalog.MissionDef) bool { return m.ID == "double" })
	if i < 0 || cat.Missions[i].Target != 2 {
		t.Errorf("mission = %+v", cat.Missions)
	}
}

func TestLoad_Sandbox(t *testing.T) {
	tests := map[string]string{
		"dofile":      `dofile("/etc/passwd")`,
		"os":          `os.exit(1)`,
		"io":          `io.open("x")`,
		"math.random": `local n = math.random(6)`,
		"require":     `require("os")`,
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			dir := writePack(t, map[string]string{"pack.lua": src})
			if _, err := Load(dir, catalog.Default(), nil); err == nil {
				t.Errorf("%s should be unavailable", name)
			}
		})
	}
}

func TestLoad_SafeLibsAvailable(t *testing.T) {
	dir := writePack(t, map[string]string{"pack.lua": `
local names = { "a", "b" }
table.insert(names, "c")
for i, n in ipairs(names) do
	Mission(string.format("m_%s", n)) { kind = "quest_count", target = math.max(i, 2), xp = 1 }
end
`})
	cat, err := Load(dir, catalog.Default(), nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if n := len(cat.Missions) - len(catalog.Default().Missions); n != 3 {
		t.Errorf("added %d missions, want 3", n)
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	dir := writePack(t, map[string]string{"pack.lua": `
Modifier "Broken" { xp = 0 }
Mission "bad" { kind = "juggling", target = 0 }
Boss(15) { name = "Nobody", xp = 10 }
Item "sword" { price = 10 }
Reward(7) { xp = 1, gold = 1 }
`})
	_, err := Load(dir, catalog.Default(), nil)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want *ValidationError", err)
	}
	for _, want := range []string{
		`Modifier "Broken" xp multiplier`,
		`unknown kind "juggling"`,
		"target must be at least 1",
		"Boss level 15",
		`Item "sword" is not a shop item`,
		"Reward difficulty must be 1-5",
	} {
		if !slices.ContainsFunc(ve.Errors, func(e string) bool { return strings.Contains(e, want) }) {
			t.Errorf("missing error containing %q in %v", want, ve.Errors)
		}
	}
}

func TestLoad_Duplicates(t *testing.T) {
	dir := writePack(t, map[string]string{
		"pack.lua":  `Modifier "Twice" { xp = 2 }`,
		"again.lua": `Modifier "Twice" { xp = 3 }`,
	})
	_, err := Load(dir, catalog.Default(), nil)
	var ve *ValidationError
	if !errors.As(err, &ve) || !strings.Contains(ve.Error(), `duplicate Modifier "Twice"`) {
		t.Errorf("err = %v", err)
	}
}

func TestLoad_UnknownAchievementIsAWarning(t *testing.T) {
	dir := writePack(t, map[string]string{"pack.lua": `Achievement "marathon" { name = "Marathon" }`})
	cat, err := Load(dir, catalog.Default(), nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cat.Achievements) != len(catalog.Default().Achievements) {
		t.Error("unknown achievements are ignored")
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing"), catalog.Default(), nil); err == nil {
		t.Error("missing directory should fail")
	}
	if _, err := Load(t.TempDir(), catalog.Default(), nil); err == nil || !strings.Contains(err.Error(), "no .lua files") {
		t.Errorf("empty directory err = %v", err)
	}
	dir := writePack(t, map[string]string{"pack.lua": `Modifier "x" {`})
	if _, err := Load(dir, catalog.Default(), nil); err == nil || !strings.Contains(err.Error(), "executing pack.lua") {
		t.Errorf("syntax error err = %v", err)
	}
}

func TestSortedLuaFiles(t *testing.T) {
	got := sortedLuaFiles([]string{"z.lua", "pack.lua", "b.lua"})
	want := []string{"pack.lua", "b.lua", "z.lua"}
	if !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if got := sortedLuaFiles([]string{"b.lua", "a.lua"}); !slices.Equal(got, []string{"a.lua", "b.lua"}) {
		t.Errorf("got %v", got)
	}
}
