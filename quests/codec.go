// Package quests stores quest records and converts them to and from note
// frontmatter.
package quests

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nathoo/questrun/types"
)

// Frontmatter keys.
const (
	KeyStatus         = "status"
	KeyDifficulty     = "difficulty"
	KeySkill          = "skill"
	KeySecondarySkill = "secondary_skill"
	KeyXPReward       = "xp_reward"
	KeyGoldReward     = "gold_reward"
	KeyHighStakes     = "high_stakes"
	KeyIsBoss         = "is_boss"
	KeyBossLevel      = "boss_level"
	KeyPriority       = "priority"
	KeyDeadline       = "deadline"
	KeyCreated        = "created"
	KeyCompletedAt    = "completed_at"
	KeyName           = "name"
)

var difficultyLabels = []string{"", "Trivial", "Easy", "Medium", "Hard", "SUICIDE"}

// DifficultyLabel returns the display label for a difficulty 1-5.
func DifficultyLabel(d int) string {
	if d < 1 || d >= len(difficultyLabels) {
		return strconv.Itoa(d)
	}
	return difficultyLabels[d]
}

// ParseDifficulty accepts a label (case-insensitive) or a number 1-5.
func ParseDifficulty(v string) (int, error) {
	v = strings.TrimSpace(v)
	for i, l := range difficultyLabels[1:] {
		if strings.EqualFold(v, l) {
			return i + 1, nil
		}
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > 5 {
		return 0, fmt.Errorf("invalid difficulty %q: want 1-5 or Trivial, Easy, Medium, Hard, SUICIDE", v)
	}
	return n, nil
}

// Decode builds a quest from its frontmatter. Missing keys take zero values;
// a missing status reads as active.
func Decode(ref string, fm map[string]any, body string) (types.Quest, error) {
	q := types.Quest{
		Ref:            ref,
		Name:           getString(fm, KeyName),
		Status:         getString(fm, KeyStatus),
		Skill:          getString(fm, KeySkill),
		SecondarySkill: getString(fm, KeySecondarySkill),
		XPReward:       getInt(fm, KeyXPReward),
		GoldReward:     getInt(fm, KeyGoldReward),
		HighStakes:     getBool(fm, KeyHighStakes),
		IsBoss:         getBool(fm, KeyIsBoss),
		BossLevel:      getInt(fm, KeyBossLevel),
		Priority:       getString(fm, KeyPriority),
		Body:           body,
	}
	if q.Name == "" {
		q.Name = ref
	}
	if q.Status == "" {
		q.Status = types.QuestActive
	}
	q.Difficulty = 1
	if raw := getString(fm, KeyDifficulty); raw != "" {
		d, err := ParseDifficulty(raw)
		if err != nil {
			return types.Quest{}, fmt.Errorf("quest %s: %w", ref, err)
		}
		q.Difficulty = d
	}

	var err error
	if q.Deadline, err = getTime(fm, KeyDeadline); err != nil {
		return types.Quest{}, fmt.Errorf("quest %s: %w", ref, err)
	}
	if q.CompletedAt, err = getTime(fm, KeyCompletedAt); err != nil {
		return types.Quest{}, fmt.Errorf("quest %s: %w", ref, err)
	}
	created, err := getTime(fm, KeyCreated)
	if err != nil {
		return types.Quest{}, fmt.Errorf("quest %s: %w", ref, err)
	}
	if created != nil {
		q.Created = *created
	}
	return q, nil
}

// Encode writes a quest's fields into fm, keeping any keys it does not own.
// A nil fm allocates a new map.
func Encode(q types.Quest, fm map[string]any) map[string]any {
	if fm == nil {
		fm = map[string]any{}
	}
	fm[KeyName] = q.Name
	fm[KeyStatus] = q.Status
	fm[KeyDifficulty] = DifficultyLabel(q.Difficulty)
	setString(fm, KeySkill, q.Skill)
	setString(fm, KeySecondarySkill, q.SecondarySkill)
	setInt(fm, KeyXPReward, q.XPReward)
	setInt(fm, KeyGoldReward, q.GoldReward)
	setBool(fm, KeyHighStakes, q.HighStakes)
	setBool(fm, KeyIsBoss, q.IsBoss)
	setInt(fm, KeyBossLevel, q.BossLevel)
	setString(fm, KeyPriority, q.Priority)
	setTime(fm, KeyDeadline, q.Deadline)
	if !q.Created.IsZero() {
		fm[KeyCreated] = q.Created.Format(time.RFC3339)
	}
	setTime(fm, KeyCompletedAt, q.CompletedAt)
	return fm
}

func getString(fm map[string]any, key string) string {
	switch v := fm[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		return fmt.Sprint(v)
	}
}

func getInt(fm map[string]any, key string) int {
	switch v := fm[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		n, _ := strconv.Atoi(strings.TrimSpace(v))
		return n
	}
	return 0
}

func getBool(fm map[string]any, key string) bool {
	switch v := fm[key].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(v))
		return b
	}
	return false
}

func getTime(fm map[string]any, key string) (*time.Time, error) {
	switch v := fm[key].(type) {
	case nil:
		return nil, nil
	case time.Time:
		return &v, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		t, err := time.Parse(time.RFC3339, strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", key, v, err)
		}
		return &t, nil
	}
	return nil, fmt.Errorf("invalid %s: %v", key, fm[key])
}

func setString(fm map[string]any, key, v string) {
	if v == "" {
		delete(fm, key)
		return
	}
	fm[key] = v
}

func setInt(fm map[string]any, key string, v int) {
	if v == 0 {
		delete(fm, key)
		return
	}
	fm[key] = v
}

func setBool(fm map[string]any, key string, v bool) {
	if !v {
		delete(fm, key)
		return
	}
	fm[key] = true
}

func setTime(fm map[string]any, key string, v *time.Time) {
	if v == nil {
		delete(fm, key)
		return
	}
	fm[key] = v.Format(time.RFC3339)
}
