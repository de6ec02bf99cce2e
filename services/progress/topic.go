package progress

import (
	"encoding/json"
	"errors"
	"fmt"

	"lms/models"
	"lms/models/curriculum"
	"lms/services/events"

	"gorm.io/gorm"
)

// errTopicAlreadyCompleted aborts the completion transaction without
// writes when the in-transaction read finds a completed row.
var errTopicAlreadyCompleted = errors.New("topic already completed")

// StartTopic creates a completion record with StartedAt=now if none
// exists; an existing record is returned unchanged.
func (s *Service) StartTopic(userID uint, topicID uint) (*curriculum.TopicCompletion, error) {
	var topic curriculum.Topic
	if err := s.db.Where("id = ? AND is_deleted = ? AND is_published = ?", topicID, false, true).
		First(&topic).Error; err != nil {
		return nil, fmt.Errorf("topic not found: %w", err)
	}

	var completion curriculum.TopicCompletion
	err := s.db.Where("user_id = ? AND topic_id = ? AND is_deleted = ?", userID, topicID, false).
		First(&completion).Error
	if err == nil {
		return &completion, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	completion = curriculum.TopicCompletion{
		UserID:    userID,
		TopicID:   topicID,
		StartedAt: s.now(),
	}
	if err := s.db.Create(&completion).Error; err != nil {
		return nil, err
	}
	return &completion, nil
}

// CompleteTopic marks the topic completed, awards its coin reward and
// recalculates the containing week inside one transaction. Completing an
// already-completed topic returns the existing record unchanged and
// never awards twice.
func (s *Service) CompleteTopic(userID uint, topicID uint, meta CompletionMetadata) (*curriculum.TopicCompletion, error) {
	var topic curriculum.Topic
	if err := s.db.Where("id = ? AND is_deleted = ? AND is_published = ?", topicID, false, true).
		First(&topic).Error; err != nil {
		return nil, fmt.Errorf("topic not found: %w", err)
	}

	week, err := s.weekForTopicTx(s.db, &topic)
	if err != nil {
		return nil, err
	}

	// The completed-row check and the lock gate live inside the
	// transaction so two concurrent completes serialize on the row
	// instead of both passing a stale pre-check.
	var completion curriculum.TopicCompletion
	var result *recalcResult
	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ? AND topic_id = ? AND is_deleted = ?", userID, topicID, false).
			First(&completion).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err == nil && completion.CompletedAt != nil {
			return errTopicAlreadyCompleted
		}

		if err := s.requireWeekUnlockedTx(tx, userID, week); err != nil {
			return err
		}

		now := s.now()
		metaJSON, merr := json.Marshal(meta)
		if merr != nil {
			return merr
		}

		if completion.ID == 0 {
			completion = curriculum.TopicCompletion{
				UserID:    userID,
				TopicID:   topicID,
				StartedAt: now,
			}
		}
		completion.CompletedAt = &now
		completion.CompletionPercentage = 100
		completion.CoinsAwarded = topic.CoinReward
		completion.CompletionData = metaJSON
		if meta.WatchTimeSeconds > completion.TimeSpentSeconds {
			completion.TimeSpentSeconds = meta.WatchTimeSeconds
		}
		if err := tx.Save(&completion).Error; err != nil {
			return err
		}

		if topic.CoinReward > 0 {
			if _, err := s.ledger.AwardCoinsTx(tx, userID, topic.CoinReward, models.CoinSourceTopic, topic.ID, "Completed topic: "+topic.Title); err != nil {
				return err
			}
		}

		r, err := s.recalcWeekTx(tx, userID, week)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if errors.Is(txErr, errTopicAlreadyCompleted) {
		// Idempotent no-op: the second writer observes the completed row.
		return &completion, nil
	}
	if errors.Is(txErr, gorm.ErrDuplicatedKey) {
		// A concurrent request inserted the row first. Rerun against the
		// existing row; the re-read takes the update or no-op path.
		return s.CompleteTopic(userID, topicID, meta)
	}
	if txErr != nil {
		return nil, txErr
	}

	s.bus.Emit(events.TopicCompleted, map[string]interface{}{
		"user_id":  userID,
		"topic_id": topic.ID,
		"week_id":  week.ID,
		"coins":    topic.CoinReward,
		"method":   meta.Method,
	})
	if topic.CoinReward > 0 {
		s.bus.Emit(events.CoinsAwarded, map[string]interface{}{
			"user_id":     userID,
			"amount":      topic.CoinReward,
			"source_type": models.CoinSourceTopic,
			"source_id":   topic.ID,
		})
	}
	s.emitRecalcEvents(userID, week, result)

	return &completion, nil
}

// UpdateTopicProgress records partial progress (e.g. video scrubbing) for
// a not-yet-completed topic. Percentage is clamped to [0,100]; a record
// is started implicitly if none exists.
func (s *Service) UpdateTopicProgress(userID uint, topicID uint, percentage float64, positionSeconds int) (*curriculum.TopicCompletion, error) {
	var topic curriculum.Topic
	if err := s.db.Where("id = ? AND is_deleted = ? AND is_published = ?", topicID, false, true).
		First(&topic).Error; err != nil {
		return nil, fmt.Errorf("topic not found: %w", err)
	}

	completion, err := s.StartTopic(userID, topicID)
	if err != nil {
		return nil, err
	}
	if completion.CompletedAt != nil {
		return completion, nil
	}

	completion.CompletionPercentage = clampPercentage(percentage)
	completion.LastPositionSeconds = positionSeconds
	if positionSeconds > completion.TimeSpentSeconds {
		completion.TimeSpentSeconds = positionSeconds
	}
	if err := s.db.Save(completion).Error; err != nil {
		return nil, err
	}
	return completion, nil
}
