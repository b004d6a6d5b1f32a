package db

import (
	"database/sql"
	"time"

	"github.com/ad/go-roadmap-progress/internal/models"
)

type ProgressRepository struct {
	queue *DBQueue
}

func NewProgressRepository(queue *DBQueue) *ProgressRepository {
	return &ProgressRepository{queue: queue}
}

// Create persists a new progress record and the user's back-reference
// link in one transaction, so a record can never exist without being
// reachable from its user. A duplicate (user, roadmap) insert fails on
// the unique index and surfaces as a unique violation.
func (r *ProgressRepository) Create(progress *models.Progress) error {
	_, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		return InTx(db, func(tx *sql.Tx) (interface{}, error) {
			_, err := tx.Exec(`
				INSERT INTO progress (id, user_id, roadmap_id, current_step_id, started_at)
				VALUES (?, ?, ?, ?, ?)
			`, progress.ID, progress.UserID, progress.RoadmapID, progress.CurrentStepID, progress.StartedAt)
			if err != nil {
				return nil, err
			}
			_, err = tx.Exec(`
				INSERT OR IGNORE INTO user_progress_links (user_id, progress_id)
				VALUES (?, ?)
			`, progress.UserID, progress.ID)
			return nil, err
		})
	})
	return err
}

func (r *ProgressRepository) GetByUserAndRoadmap(userID, roadmapID string) (*models.Progress, error) {
	result, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		row := db.QueryRow(`
			SELECT id, user_id, roadmap_id, current_step_id, started_at, last_active
			FROM progress WHERE user_id = ? AND roadmap_id = ?
		`, userID, roadmapID)

		progress, err := scanProgress(row)
		if err != nil {
			return nil, err
		}
		return r.loadCompletions(db, progress)
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.Progress), nil
}

func (r *ProgressRepository) GetByUser(userID string) ([]*models.Progress, error) {
	result, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		rows, err := db.Query(`
			SELECT id, user_id, roadmap_id, current_step_id, started_at, last_active
			FROM progress WHERE user_id = ? ORDER BY started_at
		`, userID)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var records []*models.Progress
		for rows.Next() {
			var p models.Progress
			var currentStep sql.NullString
			var lastActive sql.NullTime
			if err := rows.Scan(&p.ID, &p.UserID, &p.RoadmapID, &currentStep, &p.StartedAt, &lastActive); err != nil {
				return nil, err
			}
			if currentStep.Valid {
				p.CurrentStepID = &currentStep.String
			}
			if lastActive.Valid {
				p.LastActive = &lastActive.Time
			}
			records = append(records, &p)
		}
		if err := rows.Err(); err != nil {
			return nil, err
		}

		for _, p := range records {
			if _, err := r.loadCompletions(db, p); err != nil {
				return nil, err
			}
		}
		return records, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]*models.Progress), nil
}

// ApplyCompletion applies one step completion as a unit: the completed
// step entry, the topic entry when the topic is newly completed, the
// current-step advance and the activity timestamp either all land or
// none do. The UNIQUE(progress_id, step_id) index rejects a concurrent
// duplicate of the same completion.
func (r *ProgressRepository) ApplyCompletion(progressID string, entry models.CompletedStep, topicID string, markTopic bool, currentStepID *string, lastActive time.Time) error {
	_, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		return InTx(db, func(tx *sql.Tx) (interface{}, error) {
			_, err := tx.Exec(`
				INSERT INTO completed_steps (progress_id, step_id, completed_at, completion_percentage)
				VALUES (?, ?, ?, ?)
			`, progressID, entry.StepID, entry.CompletedAt, entry.CompletionPercentage)
			if err != nil {
				return nil, err
			}
			if markTopic {
				_, err = tx.Exec(`
					INSERT OR IGNORE INTO completed_topics (progress_id, topic_id, completed_at)
					VALUES (?, ?, ?)
				`, progressID, topicID, entry.CompletedAt)
				if err != nil {
					return nil, err
				}
			}
			_, err = tx.Exec(`
				UPDATE progress SET current_step_id = ?, last_active = ?
				WHERE id = ?
			`, currentStepID, lastActive, progressID)
			return nil, err
		})
	})
	return err
}

// AddCompletedResource records a resource as done within an already
// completed topic. Set semantics, re-adding is a no-op.
func (r *ProgressRepository) AddCompletedResource(progressID, topicID, resourceID string) error {
	_, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		_, err := db.Exec(`
			INSERT OR IGNORE INTO completed_topic_resources (progress_id, topic_id, resource_id)
			VALUES (?, ?, ?)
		`, progressID, topicID, resourceID)
		return nil, err
	})
	return err
}

func (r *ProgressRepository) loadCompletions(db *sql.DB, progress *models.Progress) (*models.Progress, error) {
	stepRows, err := db.Query(`
		SELECT step_id, completed_at, completion_percentage
		FROM completed_steps WHERE progress_id = ? ORDER BY completed_at, step_id
	`, progress.ID)
	if err != nil {
		return nil, err
	}
	defer stepRows.Close()

	progress.CompletedSteps = []models.CompletedStep{}
	for stepRows.Next() {
		var cs models.CompletedStep
		if err := stepRows.Scan(&cs.StepID, &cs.CompletedAt, &cs.CompletionPercentage); err != nil {
			return nil, err
		}
		progress.CompletedSteps = append(progress.CompletedSteps, cs)
	}
	if err := stepRows.Err(); err != nil {
		return nil, err
	}

	topicRows, err := db.Query(`
		SELECT topic_id, completed_at
		FROM completed_topics WHERE progress_id = ? ORDER BY completed_at, topic_id
	`, progress.ID)
	if err != nil {
		return nil, err
	}
	defer topicRows.Close()

	progress.CompletedTopics = []models.CompletedTopic{}
	for topicRows.Next() {
		var ct models.CompletedTopic
		if err := topicRows.Scan(&ct.TopicID, &ct.CompletedAt); err != nil {
			return nil, err
		}
		ct.ResourcesCompleted = []string{}
		progress.CompletedTopics = append(progress.CompletedTopics, ct)
	}
	if err := topicRows.Err(); err != nil {
		return nil, err
	}

	for i := range progress.CompletedTopics {
		resRows, err := db.Query(`
			SELECT resource_id FROM completed_topic_resources
			WHERE progress_id = ? AND topic_id = ? ORDER BY resource_id
		`, progress.ID, progress.CompletedTopics[i].TopicID)
		if err != nil {
			return nil, err
		}
		for resRows.Next() {
			var id string
			if err := resRows.Scan(&id); err != nil {
				resRows.Close()
				return nil, err
			}
			progress.CompletedTopics[i].ResourcesCompleted = append(progress.CompletedTopics[i].ResourcesCompleted, id)
		}
		if err := resRows.Err(); err != nil {
			resRows.Close()
			return nil, err
		}
		resRows.Close()
	}

	return progress, nil
}

func scanProgress(row *sql.Row) (*models.Progress, error) {
	var p models.Progress
	var currentStep sql.NullString
	var lastActive sql.NullTime
	err := row.Scan(&p.ID, &p.UserID, &p.RoadmapID, &currentStep, &p.StartedAt, &lastActive)
	if err != nil {
		return nil, err
	}
	if currentStep.Valid {
		p.CurrentStepID = &currentStep.String
	}
	if lastActive.Valid {
		p.LastActive = &lastActive.Time
	}
	return &p, nil
}
