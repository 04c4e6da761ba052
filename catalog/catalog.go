// Package catalog holds the static content tables of a run: modifiers, the
// daily mission pool, boss milestones, achievements, shop prices and the
// difficulty reward table. Defaults live here; a Lua content pack may
// override them (see package loader).
package catalog

import "github.com/nathoo/questrun/types"

// MissionDef is a mission pool entry.
type MissionDef struct {
	ID          string
	Kind        types.MissionKind
	Name        string
	Description string
	Target      int
	Reward      types.Reward
}

// BossDef describes one boss milestone.
type BossDef struct {
	Level    int
	Name     string
	XPReward int
}

// AchievementDef describes one achievement.
type AchievementDef struct {
	ID          string
	Name        string
	Description string
}

// ShopItem is something gold can buy.
type ShopItem struct {
	ID          string
	Name        string
	Description string
	Price       int
}

// Catalog is the immutable content of a run.
type Catalog struct {
	Neutral      types.Modifier
	Modifiers    []types.Modifier // non-neutral modifiers
	Missions     []MissionDef
	Bosses       []BossDef
	Achievements []AchievementDef
	Shop         []ShopItem
	Rewards      map[int]types.Reward // difficulty -> base reward
}

// BossLevels are the fixed milestone thresholds.
var BossLevels = []int{10, 20, 30, 50}

// FinalBossLevel is the milestone whose defeat wins the game.
const FinalBossLevel = 50

// Shop item IDs.
const (
	ItemShield = "shield"
	ItemRest   = "rest"
	ItemPotion = "potion"
)

// Default returns the built-in catalog.
func Default() *Catalog {
	return &Catalog{
		Neutral: types.Modifier{
			Name:            "Clear Skies",
			Description:     "Nothing unusual today.",
			XPMultiplier:    1,
			GoldMultiplier:  1,
			PriceMultiplier: 1,
		},
		Modifiers: []types.Modifier{
			{Name: "Flow State", Description: "Everything clicks. +50% XP.", XPMultiplier: 1.5, GoldMultiplier: 1, PriceMultiplier: 1},
			{Name: "Golden Hour", Description: "Coins everywhere. +50% gold.", XPMultiplier: 1, GoldMultiplier: 1.5, PriceMultiplier: 1},
			{Name: "Brain Fog", Description: "Hard to focus. -25% XP.", XPMultiplier: 0.75, GoldMultiplier: 1, PriceMultiplier: 1},
			{Name: "Inflation", Description: "Prices are up 50%.", XPMultiplier: 1, GoldMultiplier: 1, PriceMultiplier: 1.5},
			{Name: "Clearance Sale", Description: "Prices are down 25%.", XPMultiplier: 1, GoldMultiplier: 1, PriceMultiplier: 0.75},
			{Name: "Double Down", Description: "Double XP, half gold.", XPMultiplier: 2, GoldMultiplier: 0.5, PriceMultiplier: 1},
		},
		Missions: []MissionDef{
			{ID: "early_bird", Kind: types.MissionMorningTrivial, Name: "Early Bird", Description: "Complete a trivial quest before 10:00.", Target: 1, Reward: types.Reward{XP: 10, Gold: 15}},
			{ID: "momentum", Kind: types.MissionQuestCount, Name: "Momentum", Description: "Complete 3 quests today.", Target: 3, Reward: types.Reward{XP: 20, Gold: 20}},
			{ID: "clean_slate", Kind: types.MissionZeroInbox, Name: "Clean Slate", Description: "Empty your quest inbox.", Target: 1, Reward: types.Reward{XP: 15, Gold: 10}},
			{ID: "specialist", Kind: types.MissionSkillRepeat, Name: "Specialist", Description: "Use the same skill 3 times.", Target: 3, Reward: types.Reward{XP: 15, Gold: 15}},
			{ID: "gambler", Kind: types.MissionHighStakes, Name: "Gambler", Description: "Complete a high-stakes quest.", Target: 1, Reward: types.Reward{XP: 25, Gold: 25}},
			{ID: "speedrunner", Kind: types.MissionFastComplete, Name: "Speedrunner", Description: "Complete a quest within 2 hours of creating it.", Target: 1, Reward: types.Reward{XP: 15, Gold: 10}},
			{ID: "synergist", Kind: types.MissionSynergy, Name: "Synergist", Description: "Complete a quest using two skills.", Target: 1, Reward: types.Reward{XP: 20, Gold: 15}},
			{ID: "untouchable", Kind: types.MissionNoDamage, Name: "Untouchable", Description: "Complete 3 quests without taking damage.", Target: 3, Reward: types.Reward{XP: 20, Gold: 20}},
			{ID: "heavy_lifter", Kind: types.MissionHardQuest, Name: "Heavy Lifter", Description: "Complete a hard quest.", Target: 1, Reward: types.Reward{XP: 30, Gold: 25}},
		},
		Bosses: []BossDef{
			{Level: 10, Name: "The Sloth Warden", XPReward: 200},
			{Level: 20, Name: "Hydra of Distraction", XPReward: 400},
			{Level: 30, Name: "The Burnout Colossus", XPReward: 700},
			{Level: 50, Name: "The Last Procrastinator", XPReward: 1500},
		},
		Achievements: []AchievementDef{
			{ID: "first_blood", Name: "First Blood", Description: "Complete your first quest."},
			{ID: "week_streak", Name: "Unbroken", Description: "Keep a 7-day streak."},
			{ID: "chain_master", Name: "Chain Master", Description: "Complete a quest chain."},
			{ID: "scholar", Name: "Scholar", Description: "Complete a research quest."},
			{ID: "boss_slayer", Name: "Boss Slayer", Description: "Defeat a boss."},
			{ID: "level_10", Name: "Seasoned", Description: "Reach level 10."},
			{ID: "zen", Name: "Zen", Description: "Shorten a lockdown through meditation."},
			{ID: "victory", Name: "Victory", Description: "Defeat the final boss."},
		},
		Shop: []ShopItem{
			{ID: ItemShield, Name: "Shield", Description: "Blocks failure damage until tomorrow.", Price: 150},
			{ID: ItemRest, Name: "Rest Day", Description: "Skills do not rust for 24 hours.", Price: 100},
			{ID: ItemPotion, Name: "Potion", Description: "Restores 20 HP.", Price: 50},
		},
		Rewards: map[int]types.Reward{
			1: {XP: 10, Gold: 5},
			2: {XP: 20, Gold: 10},
			3: {XP: 40, Gold: 20},
			4: {XP: 80, Gold: 40},
			5: {XP: 150, Gold: 75},
		},
	}
}

// Item returns the shop item with the given ID.
func (c *Catalog) Item(id string) (ShopItem, bool) {
	for _, it := range c.Shop {
		if it.ID == id {
			return it, true
		}
	}
	return ShopItem{}, false
}

// Reward returns the base reward for a difficulty, falling back to the
// nearest defined tier.
func (c *Catalog) Reward(difficulty int) types.Reward {
	if r, ok := c.Rewards[difficulty]; ok {
		return r
	}
	if difficulty > 5 {
		return c.Rewards[5]
	}
	return c.Rewards[1]
}
