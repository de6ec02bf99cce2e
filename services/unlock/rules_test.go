package unlock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestParseRuleSetEmptyDocumentYieldsZeroRules(t *testing.T) {
	for _, doc := range []datatypes.JSON{nil, datatypes.JSON("")} {
		rules, err := ParseRuleSet(doc)
		require.NoError(t, err)
		assert.Equal(t, int64(0), rules.MinCoins)
		assert.Nil(t, rules.MinPreviousWeekProgress)
		assert.Empty(t, rules.RequiredCompletions)
		assert.Equal(t, 100, rules.PreviousWeekThreshold())
	}
}

func TestParseRuleSetFullDocument(t *testing.T) {
	doc := datatypes.JSON(`{
		"min_coins": 100,
		"min_previous_week_progress": 80,
		"required_completions": [
			{"type": "topics", "count": 2, "week_number": 0},
			{"type": "quizzes", "count": 1, "week_number": 0}
		]
	}`)

	rules, err := ParseRuleSet(doc)
	require.NoError(t, err)
	assert.Equal(t, int64(100), rules.MinCoins)
	assert.Equal(t, 80, rules.PreviousWeekThreshold())
	require.Len(t, rules.RequiredCompletions, 2)
	assert.Equal(t, CompletionTopics, rules.RequiredCompletions[0].Type)
	assert.Equal(t, 2, rules.RequiredCompletions[0].Count)
}

func TestParseRuleSetExplicitZeroThreshold(t *testing.T) {
	rules, err := ParseRuleSet(datatypes.JSON(`{"min_previous_week_progress": 0}`))
	require.NoError(t, err)

	// Explicit 0 must not fall back to the default
	assert.Equal(t, 0, rules.PreviousWeekThreshold())
}

func TestParseRuleSetRejectsMalformedJSON(t *testing.T) {
	_, err := ParseRuleSet(datatypes.JSON(`{"min_coins": `))
	assert.Error(t, err)
}

func TestParseRuleSetRejectsUnknownCompletionType(t *testing.T) {
	_, err := ParseRuleSet(datatypes.JSON(`{"required_completions": [{"type": "badges", "count": 1}]}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "badges")
}
