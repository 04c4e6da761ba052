// Package loader reads a Lua content pack and overlays it on a catalog.
// The Lua VM only lives for the duration of Load; nothing scripted runs
// while a run is being played.
package loader

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nathoo/questrun/catalog"
	lua "github.com/yuin/gopher-lua"
)

// PackFile is executed before the other scripts of a pack.
const PackFile = "pack.lua"

// collector accumulates Lua definitions during file execution.
type collector struct {
	neutral      *lua.LTable
	modifiers    []rawNamed
	missions     []rawNamed
	achievements []rawNamed
	items        []rawNamed
	bosses       []rawLeveled
	rewards      []rawLeveled
}

// Load executes every .lua file in dir, validates the definitions and
// returns base with the pack applied. base is not modified. An empty dir
// returns base unchanged.
func Load(dir string, base *catalog.Catalog, logger *slog.Logger) (*catalog.Catalog, error) {
	if dir == "" {
		return base, nil
	}
	if logger == nil {
		logger = slog.Default()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading content pack %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".lua") {
			files = append(files, e.Name())
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .lua files found in %s", dir)
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()
	openSafeLibs(L)
	sandbox(L)

	coll := &collector{}
	registerAPI(L, coll)
	for _, f := range sortedLuaFiles(files) {
		if err := L.DoFile(filepath.Join(dir, f)); err != nil {
			return nil, fmt.Errorf("executing %s: %w", f, err)
		}
	}

	pack := compile(coll)
	warnings, err := validate(pack)
	for _, w := range warnings {
		logger.Warn("content pack", "dir", dir, "warning", w)
	}
	if err != nil {
		return nil, err
	}

	cat := pack.Apply(base)
	logger.Info("content pack loaded", "dir", dir, "files", len(files),
		"modifiers", len(cat.Modifiers), "missions", len(cat.Missions))
	return cat, nil
}

// sortedLuaFiles puts PackFile first and the rest in name order.
func sortedLuaFiles(files []string) []string {
	var first bool
	var others []string
	for _, f := range files {
		if f == PackFile {
			first = true
			continue
		}
		others = append(others, f)
	}
	sort.Strings(others)
	if first {
		return append([]string{PackFile}, others...)
	}
	return others
}

// openSafeLibs opens only the safe subset of Lua standard libraries.
func openSafeLibs(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// sandbox removes globals that reach the filesystem or the VM internals.
func sandbox(L *lua.LState) {
	for _, name := range []string{
		"dofile", "loadfile", "load", "loadstring",
		"rawset", "rawget", "rawequal",
		"collectgarbage", "require", "module",
	} {
		L.SetGlobal(name, lua.LNil)
	}
	// Rolls come from the run's own seeded stream.
	if tbl, ok := L.GetGlobal("math").(*lua.LTable); ok {
		tbl.RawSetString("random", lua.LNil)
		tbl.RawSetString("randomseed", lua.LNil)
	}
}
