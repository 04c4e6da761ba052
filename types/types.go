// Package types defines the shared data structures for the questrun engine.
// This package contains only type definitions: no logic.
package types

import "time"

// Result is the output of a single engine verb.
type Result struct {
	Output []string
}

// Modifier is a daily global multiplier set.
type Modifier struct {
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	XPMultiplier    float64 `json:"xp_multiplier"`
	GoldMultiplier  float64 `json:"gold_multiplier"`
	PriceMultiplier float64 `json:"price_multiplier"`
}

// Skill is a player skill with decay tracking.
type Skill struct {
	Name        string    `json:"name"`
	Level       int       `json:"level"`
	XP          float64   `json:"xp"`
	XPReq       int       `json:"xp_req"`
	LastUsedAt  time.Time `json:"last_used_at"`
	Rust        int       `json:"rust"`
	Connections []string  `json:"connections"`
}

// QuestChain is an ordered sequence of quest refs completed strictly in order.
type QuestChain struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Quests       []string   `json:"quests"`
	CurrentIndex int        `json:"current_index"`
	Completed    bool       `json:"completed"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// Chain record outcomes.
const (
	ChainOutcomeCompleted = "completed"
	ChainOutcomeBroken    = "broken"
)

// QuestChainRecord is an immutable history entry for a finished chain.
type QuestChainRecord struct {
	ChainID        string    `json:"chain_id"`
	Name           string    `json:"name"`
	Total          int       `json:"total"`
	CompletedLinks int       `json:"completed_links"`
	XPEarned       int       `json:"xp_earned"`
	Outcome        string    `json:"outcome"`
	At             time.Time `json:"at"`
}

// ResearchKind selects the word target of a research quest.
type ResearchKind string

const (
	ResearchSurvey   ResearchKind = "survey"
	ResearchDeepDive ResearchKind = "deep_dive"
)

// ResearchQuest is a writing quest with a word-count band.
type ResearchQuest struct {
	ID          int          `json:"id"`
	Title       string       `json:"title"`
	Kind        ResearchKind `json:"kind"`
	WordLimit   int          `json:"word_limit"`
	WordCount   int          `json:"word_count"`
	LinkedSkill string       `json:"linked_skill"`
	LinkedQuest string       `json:"linked_quest,omitempty"`
	Completed   bool         `json:"completed"`
	CreatedAt   time.Time    `json:"created_at"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
}

// ResearchStats holds the cumulative counters behind the research ratio.
type ResearchStats struct {
	TotalCombat       int `json:"total_combat"`
	TotalResearch     int `json:"total_research"`
	CombatCompleted   int `json:"combat_completed"`
	ResearchCompleted int `json:"research_completed"`
}

// MissionKind tags which events advance a daily mission.
type MissionKind string

const (
	MissionMorningTrivial MissionKind = "morning_trivial"
	MissionQuestCount     MissionKind = "quest_count"
	MissionZeroInbox      MissionKind = "zero_inbox"
	MissionSkillRepeat    MissionKind = "skill_repeat"
	MissionHighStakes     MissionKind = "high_stakes"
	MissionFastComplete   MissionKind = "fast_complete"
	MissionSynergy        MissionKind = "synergy"
	MissionNoDamage       MissionKind = "no_damage"
	MissionHardQuest      MissionKind = "hard_quest"
)

// Reward is an XP and gold payout.
type Reward struct {
	XP   int `json:"xp"`
	Gold int `json:"gold"`
}

// DailyMission is one of the three objectives rolled for a day.
type DailyMission struct {
	ID          string      `json:"id"`
	Kind        MissionKind `json:"kind"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Target      int         `json:"target"`
	Progress    int         `json:"progress"`
	Completed   bool        `json:"completed"`
	Reward      Reward      `json:"reward"`
}

// BossMilestone is a level-gated boss encounter.
type BossMilestone struct {
	Level      int        `json:"level"`
	Name       string     `json:"name"`
	Unlocked   bool       `json:"unlocked"`
	Defeated   bool       `json:"defeated"`
	XPReward   int        `json:"xp_reward"`
	UnlockedAt *time.Time `json:"unlocked_at,omitempty"`
	DefeatedAt *time.Time `json:"defeated_at,omitempty"`
}

// DayMetric tallies one calendar day.
type DayMetric struct {
	Date              string `json:"date"`
	QuestsCompleted   int    `json:"quests_completed"`
	QuestsFailed      int    `json:"quests_failed"`
	XPEarned          int    `json:"xp_earned"`
	GoldEarned        int    `json:"gold_earned"`
	DamageTaken       int    `json:"damage_taken"`
	ResearchCompleted int    `json:"research_completed"`
}

// Streak tracks consecutive days with at least one completion.
type Streak struct {
	Current  int    `json:"current"`
	Longest  int    `json:"longest"`
	LastDate string `json:"last_date"`
}

// Achievement is a catalog entry with an unlocked flag.
type Achievement struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Unlocked    bool       `json:"unlocked"`
	UnlockedAt  *time.Time `json:"unlocked_at,omitempty"`
}

// Legacy survives run resets.
type Legacy struct {
	DeathCount  int        `json:"death_count"`
	BestLevel   int        `json:"best_level"`
	LastDeathAt *time.Time `json:"last_death_at,omitempty"`
}

// HistoryEntry is one line of the activity log.
type HistoryEntry struct {
	At      time.Time `json:"at"`
	Kind    string    `json:"kind"`
	Message string    `json:"message"`
}

// Filters is UI filter state carried through untouched by the engine.
type Filters struct {
	Status     string `json:"status,omitempty"`
	Skill      string `json:"skill,omitempty"`
	Difficulty int    `json:"difficulty,omitempty"`
}

// RunState is the complete mutable state of a run.
type RunState struct {
	HP               int        `json:"hp"`
	MaxHP            int        `json:"max_hp"`
	Gold             int        `json:"gold"`
	XP               int        `json:"xp"`
	Level            int        `json:"level"`
	XPReq            int        `json:"xp_req"`
	RivalDamage      int        `json:"rival_damage"`
	LastLoginDate    string     `json:"last_login_date"`
	DamageTakenToday int        `json:"damage_taken_today"`
	LockdownUntil    *time.Time `json:"lockdown_until,omitempty"`
	MeditationCycles int        `json:"meditation_cycles"`
	LastMeditationAt *time.Time `json:"last_meditation_at,omitempty"`
	RestUntil        *time.Time `json:"rest_until,omitempty"`
	ShieldUntil      *time.Time `json:"shield_until,omitempty"`
	DailyModifier    Modifier   `json:"daily_modifier"`

	Skills []Skill `json:"skills"`

	ActiveChains   []QuestChain       `json:"active_chains"`
	CurrentChainID string             `json:"current_chain_id,omitempty"`
	ChainHistory   []QuestChainRecord `json:"chain_history"`

	ResearchQuests []ResearchQuest `json:"research_quests"`
	NextResearchID int             `json:"next_research_id"`
	ResearchStats  ResearchStats   `json:"research_stats"`

	DailyMissions         []DailyMission `json:"daily_missions"`
	DailyMissionDate      string         `json:"daily_mission_date"`
	DailyMissionBonusPaid bool           `json:"daily_mission_bonus_paid"`
	QuestsCompletedToday  int            `json:"quests_completed_today"`
	SkillUsesToday        map[string]int `json:"skill_uses_today"`
	DeletionsToday        int            `json:"deletions_today"`

	BossMilestones []BossMilestone `json:"boss_milestones"`
	DayMetrics     []DayMetric     `json:"day_metrics"`
	Streak         Streak          `json:"streak"`
	Achievements   []Achievement   `json:"achievements"`
	GameWon        bool            `json:"game_won"`
	GameWonAt      *time.Time      `json:"game_won_at,omitempty"`
	Legacy         Legacy          `json:"legacy"`

	History []HistoryEntry `json:"history"`
	Filters Filters        `json:"filters"`

	RNGSeed     int64 `json:"rng_seed"`
	RNGPosition int64 `json:"rng_position"`
}

// Quest statuses.
const (
	QuestActive    = "active"
	QuestCompleted = "completed"
	QuestFailed    = "failed"
)

// Quest is a quest record as exposed by the quest storage collaborator.
type Quest struct {
	Ref            string
	Name           string
	Status         string
	Difficulty     int
	Skill          string
	SecondarySkill string
	XPReward       int
	GoldReward     int
	HighStakes     bool
	IsBoss         bool
	BossLevel      int
	Priority       string
	Deadline       *time.Time
	Created        time.Time
	CompletedAt    *time.Time
	Body           string
}
