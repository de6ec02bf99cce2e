package unlock

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
)

// CompletionType tags one kind of countable activity in a rule document
type CompletionType string

const (
	CompletionTopics      CompletionType = "topics"
	CompletionQuizzes     CompletionType = "quizzes"
	CompletionAssignments CompletionType = "assignments"
	CompletionLiveClasses CompletionType = "live_classes"
)

// RequiredCompletion requires Count completed units of Type within the
// week identified by WeekNumber (same cohort as the gated week).
type RequiredCompletion struct {
	Type       CompletionType `json:"type"`
	Count      int            `json:"count"`
	WeekNumber int            `json:"week_number"`
}

// RuleSet is the declarative unlock-rule document stored on a week. It is
// data, interpreted structurally by the evaluator; editing it never
// requires a redeploy.
type RuleSet struct {
	MinCoins int64 `json:"min_coins"`
	// MinPreviousWeekProgress defaults to 100 when the field is absent
	// and a previous week exists. A pointer distinguishes "unset" from
	// an explicit 0.
	MinPreviousWeekProgress *int                 `json:"min_previous_week_progress,omitempty"`
	RequiredCompletions     []RequiredCompletion `json:"required_completions,omitempty"`
}

// ParseRuleSet decodes a week's unlock_rules column. An empty document
// yields the zero rule set (no coins required, default previous-week
// threshold, no required completions).
func ParseRuleSet(doc datatypes.JSON) (RuleSet, error) {
	var rules RuleSet
	if len(doc) == 0 {
		return rules, nil
	}
	if err := json.Unmarshal(doc, &rules); err != nil {
		return rules, fmt.Errorf("invalid unlock rules document: %w", err)
	}
	for _, rc := range rules.RequiredCompletions {
		if _, ok := counterFor(rc.Type); !ok {
			return rules, fmt.Errorf("invalid unlock rules document: unknown completion type %q", rc.Type)
		}
	}
	return rules, nil
}

// PreviousWeekThreshold returns the minimum previous-week percentage,
// defaulting to 100 when the document leaves it unset.
func (r RuleSet) PreviousWeekThreshold() int {
	if r.MinPreviousWeekProgress == nil {
		return 100
	}
	return *r.MinPreviousWeekProgress
}
