package loader

import (
	lua "github.com/yuin/gopher-lua"
)

// registerAPI installs the pack constructors as globals.
//
//	Neutral { description = "...", xp = 1, gold = 1, price = 1 }
//	Modifier "Flow State" { description = "...", xp = 1.5 }
//	Mission "early_bird" { kind = "morning_trivial", name = "...", target = 1, xp = 10, gold = 15 }
//	Achievement "first_blood" { name = "...", description = "..." }
//	Item "potion" { name = "...", description = "...", price = 50 }
//	Boss(10) { name = "...", xp = 200 }
//	Reward(3) { xp = 40, gold = 20 }
func registerAPI(L *lua.LState, coll *collector) {
	L.SetGlobal("Neutral", L.NewFunction(func(L *lua.LState) int {
		coll.neutral = L.CheckTable(1)
		return 0
	}))

	named := func(global string, dst *[]rawNamed) {
		L.SetGlobal(global, L.NewFunction(func(L *lua.LState) int {
			id := L.CheckString(1)
			L.Push(L.NewFunction(func(L *lua.LState) int {
				*dst = append(*dst, rawNamed{id: id, table: L.CheckTable(1)})
				return 0
			}))
			return 1
		}))
	}
	named("Modifier", &coll.modifiers)
	named("Mission", &coll.missions)
	named("Achievement", &coll.achievements)
	named("Item", &coll.items)

	leveled := func(global string, dst *[]rawLeveled) {
		L.SetGlobal(global, L.NewFunction(func(L *lua.LState) int {
			n := L.CheckInt(1)
			L.Push(L.NewFunction(func(L *lua.LState) int {
				*dst = append(*dst, rawLeveled{n: n, table: L.CheckTable(1)})
				return 0
			}))
			return 1
		}))
	}
	leveled("Boss", &coll.bosses)
	leveled("Reward", &coll.rewards)
}
