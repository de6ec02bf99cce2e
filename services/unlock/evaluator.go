package unlock

import (
	"errors"
	"fmt"
	"time"

	"lms/models/curriculum"
	"lms/services/events"
	"lms/services/rewards"

	"gorm.io/gorm"
)

// WeekProgressionError is returned when an unlock is attempted while the
// week's rules are not satisfied. It carries the unmet requirements for
// user-facing messaging.
type WeekProgressionError struct {
	WeekNumber int
	Unmet      []Requirement
}

func (e *WeekProgressionError) Error() string {
	return fmt.Sprintf("Week %d cannot be unlocked. Requirements not met.", e.WeekNumber+1)
}

// Requirement is one checked unlock condition with its current state
type Requirement struct {
	Type     string `json:"type"` // previous_week, coins, topics, quizzes, assignments, live_classes
	Label    string `json:"label"`
	Required int64  `json:"required"`
	Current  int64  `json:"current"`
	Met      bool   `json:"met"`
}

// RequirementsSummary is the diagnostic view of a week's unlock state
type RequirementsSummary struct {
	CanUnlock    bool          `json:"can_unlock"`
	Message      string        `json:"message"`
	Requirements []Requirement `json:"requirements"`
}

// BulkUnlockResult captures one user's outcome of a bulk unlock
type BulkUnlockResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// EvaluatorConfig holds dependencies for the unlock evaluator.
type EvaluatorConfig struct {
	DB     *gorm.DB
	Ledger *rewards.Ledger
	Bus    *events.Bus
	Now    func() time.Time // defaults to time.Now
}

// Evaluator interprets a week's declarative rule set against a user's
// current state and performs the locked -> unlocked transition.
type Evaluator struct {
	db     *gorm.DB
	ledger *rewards.Ledger
	bus    *events.Bus
	now    func() time.Time
}

// NewEvaluator creates a week unlock evaluator.
func NewEvaluator(cfg EvaluatorConfig) *Evaluator {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	bus := cfg.Bus
	if bus == nil {
		bus = events.Default
	}
	return &Evaluator{db: cfg.DB, ledger: cfg.Ledger, bus: bus, now: now}
}

// CanUnlockWeek reports whether every unlock condition of the week is
// satisfied for the user. Week 0 is always unlockable.
func (e *Evaluator) CanUnlockWeek(userID uint, week *curriculum.Week) (bool, error) {
	ok, _, err := e.evaluateTx(e.db, userID, week)
	return ok, err
}

// CanUnlockWeekTx is CanUnlockWeek inside the caller's transaction.
func (e *Evaluator) CanUnlockWeekTx(tx *gorm.DB, userID uint, week *curriculum.Week) (bool, error) {
	ok, _, err := e.evaluateTx(tx, userID, week)
	return ok, err
}

// evaluateTx checks every condition and returns the full requirement list
// alongside the conjunctive verdict.
func (e *Evaluator) evaluateTx(tx *gorm.DB, userID uint, week *curriculum.Week) (bool, []Requirement, error) {
	if week.WeekNumber == 0 {
		return true, nil, nil
	}

	rules, err := ParseRuleSet(week.UnlockRules)
	if err != nil {
		return false, nil, err
	}

	var reqs []Requirement
	allMet := true

	// Previous week progress. Fails closed when the user has no progress
	// record for the previous week.
	var prevWeek curriculum.Week
	err = tx.Where("cohort_id = ? AND week_number = ? AND is_deleted = ?", week.CohortID, week.WeekNumber-1, false).
		First(&prevWeek).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil, err
	}
	if err == nil {
		threshold := rules.PreviousWeekThreshold()
		var current int64
		var progress curriculum.UserWeekProgress
		perr := tx.Where("user_id = ? AND week_id = ? AND is_deleted = ?", userID, prevWeek.ID, false).
			First(&progress).Error
		if perr != nil && !errors.Is(perr, gorm.ErrRecordNotFound) {
			return false, nil, perr
		}
		if perr == nil {
			current = int64(progress.CompletionPercentage)
		}
		met := perr == nil && progress.CompletionPercentage >= float64(threshold)
		reqs = append(reqs, Requirement{
			Type:     "previous_week",
			Label:    fmt.Sprintf("Week %d progress", prevWeek.WeekNumber+1),
			Required: int64(threshold),
			Current:  current,
			Met:      met,
		})
		allMet = allMet && met
	}

	// Coin balance. Listed even at a zero minimum so the diagnostic
	// view always enumerates every condition kind.
	balance, err := e.ledger.GetBalanceTx(tx, userID)
	if err != nil {
		return false, nil, err
	}
	coinsMet := balance.TotalBalance >= rules.MinCoins
	reqs = append(reqs, Requirement{
		Type:     "coins",
		Label:    "Coin balance",
		Required: rules.MinCoins,
		Current:  balance.TotalBalance,
		Met:      coinsMet,
	})
	allMet = allMet && coinsMet

	// Counted completions per activity kind
	for _, rc := range rules.RequiredCompletions {
		counter, ok := counterFor(rc.Type)
		if !ok {
			return false, nil, fmt.Errorf("unknown completion type %q", rc.Type)
		}

		var count int64
		var target curriculum.Week
		werr := tx.Where("cohort_id = ? AND week_number = ? AND is_deleted = ?", week.CohortID, rc.WeekNumber, false).
			First(&target).Error
		if werr != nil && !errors.Is(werr, gorm.ErrRecordNotFound) {
			return false, nil, werr
		}
		if werr == nil {
			count, err = counter.Count(tx, userID, target.ID)
			if err != nil {
				return false, nil, err
			}
		}

		met := count >= int64(rc.Count)
		reqs = append(reqs, Requirement{
			Type:     string(rc.Type),
			Label:    fmt.Sprintf("%s in week %d", counter.Label(), rc.WeekNumber+1),
			Required: int64(rc.Count),
			Current:  count,
			Met:      met,
		})
		allMet = allMet && met
	}

	return allMet, reqs, nil
}

// UnlockWeek transitions the week to unlocked for the user. Unlocking an
// already-unlocked week returns the existing record unchanged.
func (e *Evaluator) UnlockWeek(userID uint, week *curriculum.Week) (*curriculum.UserWeekProgress, error) {
	var progress *curriculum.UserWeekProgress
	var newlyUnlocked bool
	err := e.db.Transaction(func(tx *gorm.DB) error {
		p, unlocked, err := e.UnlockWeekTx(tx, userID, week)
		progress, newlyUnlocked = p, unlocked
		return err
	})
	if err != nil {
		return nil, err
	}
	if newlyUnlocked {
		e.emitUnlocked(userID, week)
	}
	return progress, nil
}

// UnlockWeekTx is UnlockWeek inside the caller's transaction. It reports
// whether the week transitioned on this call; the caller is responsible
// for emitting the unlock event after commit.
func (e *Evaluator) UnlockWeekTx(tx *gorm.DB, userID uint, week *curriculum.Week) (*curriculum.UserWeekProgress, bool, error) {
	var progress curriculum.UserWeekProgress
	err := tx.Where("user_id = ? AND week_id = ? AND is_deleted = ?", userID, week.ID, false).
		First(&progress).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}
	if err == nil && progress.IsUnlocked {
		return &progress, false, nil
	}

	ok, reqs, verr := e.evaluateTx(tx, userID, week)
	if verr != nil {
		return nil, false, verr
	}
	if !ok {
		unmet := make([]Requirement, 0, len(reqs))
		for _, r := range reqs {
			if !r.Met {
				unmet = append(unmet, r)
			}
		}
		return nil, false, &WeekProgressionError{WeekNumber: week.WeekNumber, Unmet: unmet}
	}

	now := e.now()
	if errors.Is(err, gorm.ErrRecordNotFound) {
		progress = curriculum.UserWeekProgress{
			UserID:     userID,
			WeekID:     week.ID,
			CohortID:   week.CohortID,
			IsUnlocked: true,
			UnlockedAt: &now,
		}
		if err := tx.Create(&progress).Error; err != nil {
			return nil, false, err
		}
		return &progress, true, nil
	}

	progress.IsUnlocked = true
	progress.UnlockedAt = &now
	if err := tx.Save(&progress).Error; err != nil {
		return nil, false, err
	}
	return &progress, true, nil
}

// EvaluateAndUnlockNext looks up the following week in the cohort and
// unlocks it when its rules are satisfied. It returns nil without error
// when no next week exists or the rules are not yet met. This is the
// cascade hook invoked after a week's progress reaches 100%.
func (e *Evaluator) EvaluateAndUnlockNext(userID uint, completedWeek *curriculum.Week) (*curriculum.UserWeekProgress, error) {
	var progress *curriculum.UserWeekProgress
	var next *curriculum.Week
	err := e.db.Transaction(func(tx *gorm.DB) error {
		p, w, err := e.EvaluateAndUnlockNextTx(tx, userID, completedWeek)
		progress, next = p, w
		return err
	})
	if err != nil {
		return nil, err
	}
	if progress != nil && next != nil {
		e.emitUnlocked(userID, next)
	}
	return progress, nil
}

// EvaluateAndUnlockNextTx is EvaluateAndUnlockNext inside the caller's
// transaction. It returns the unlocked week alongside the progress record
// when a transition happened, so the caller can emit after commit.
func (e *Evaluator) EvaluateAndUnlockNextTx(tx *gorm.DB, userID uint, completedWeek *curriculum.Week) (*curriculum.UserWeekProgress, *curriculum.Week, error) {
	var next curriculum.Week
	err := tx.Where("cohort_id = ? AND week_number = ? AND is_deleted = ?", completedWeek.CohortID, completedWeek.WeekNumber+1, false).
		First(&next).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	ok, _, err := e.evaluateTx(tx, userID, &next)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, nil
	}

	progress, newlyUnlocked, err := e.UnlockWeekTx(tx, userID, &next)
	if err != nil {
		return nil, nil, err
	}
	if !newlyUnlocked {
		return progress, nil, nil
	}
	return progress, &next, nil
}

// GetUnlockRequirementsSummary enumerates every checked condition with
// its current-vs-required values, for the UI.
func (e *Evaluator) GetUnlockRequirementsSummary(userID uint, week *curriculum.Week) (*RequirementsSummary, error) {
	ok, reqs, err := e.evaluateTx(e.db, userID, week)
	if err != nil {
		return nil, err
	}

	summary := &RequirementsSummary{
		CanUnlock:    ok,
		Requirements: reqs,
	}
	switch {
	case week.WeekNumber == 0:
		summary.Message = fmt.Sprintf("Week %d is automatically unlocked", week.WeekNumber+1)
	case !ok:
		summary.Message = "Some requirements not yet met"
	default:
		summary.Message = fmt.Sprintf("All requirements met. Week %d can be unlocked.", week.WeekNumber+1)
	}
	return summary, nil
}

// BulkUnlockWeek applies UnlockWeek independently per user. One user's
// failure never aborts the others.
func (e *Evaluator) BulkUnlockWeek(week *curriculum.Week, userIDs []uint) map[uint]BulkUnlockResult {
	results := make(map[uint]BulkUnlockResult, len(userIDs))
	for _, userID := range userIDs {
		if _, err := e.UnlockWeek(userID, week); err != nil {
			results[userID] = BulkUnlockResult{Success: false, Error: err.Error()}
			continue
		}
		results[userID] = BulkUnlockResult{Success: true}
	}
	return results
}

func (e *Evaluator) emitUnlocked(userID uint, week *curriculum.Week) {
	e.bus.Emit(events.WeekUnlocked, map[string]interface{}{
		"user_id":     userID,
		"week_id":     week.ID,
		"week_number": week.WeekNumber,
		"cohort_id":   week.CohortID,
	})
}
