package db

import (
	"database/sql"

	"github.com/ad/go-roadmap-progress/internal/models"
)

type StepRepository struct {
	queue *DBQueue
}

func NewStepRepository(queue *DBQueue) *StepRepository {
	return &StepRepository{queue: queue}
}

func (r *StepRepository) Create(step *models.Step) error {
	_, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		_, err := db.Exec(`
			INSERT INTO steps (id, title, roadmap_id, step_order, topic_id)
			VALUES (?, ?, ?, ?, ?)
		`, step.ID, step.Title, step.RoadmapID, step.Order, step.TopicID)
		return nil, err
	})
	return err
}

func (r *StepRepository) GetByID(id string) (*models.Step, error) {
	result, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		row := db.QueryRow(`
			SELECT id, title, roadmap_id, step_order, topic_id
			FROM steps WHERE id = ?
		`, id)
		return scanStep(row)
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.Step), nil
}

func (r *StepRepository) GetByRoadmap(roadmapID string) ([]*models.Step, error) {
	result, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		rows, err := db.Query(`
			SELECT id, title, roadmap_id, step_order, topic_id
			FROM steps
			WHERE roadmap_id = ?
			ORDER BY step_order, id
		`, roadmapID)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var steps []*models.Step
		for rows.Next() {
			var step models.Step
			if err := rows.Scan(&step.ID, &step.Title, &step.RoadmapID, &step.Order, &step.TopicID); err != nil {
				return nil, err
			}
			steps = append(steps, &step)
		}
		return steps, rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return result.([]*models.Step), nil
}

// GetFirst returns the step with the lowest order in the roadmap, or
// sql.ErrNoRows for a roadmap with no steps. Equal orders cannot occur
// through this schema, but the id tie-break keeps the pick stable even
// against corrupted catalog data.
func (r *StepRepository) GetFirst(roadmapID string) (*models.Step, error) {
	result, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		row := db.QueryRow(`
			SELECT id, title, roadmap_id, step_order, topic_id
			FROM steps
			WHERE roadmap_id = ?
			ORDER BY step_order, id
			LIMIT 1
		`, roadmapID)
		return scanStep(row)
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.Step), nil
}

// GetNextAfter returns the step with the smallest order strictly greater
// than afterOrder, or sql.ErrNoRows when the roadmap is exhausted.
func (r *StepRepository) GetNextAfter(roadmapID string, afterOrder int) (*models.Step, error) {
	result, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		row := db.QueryRow(`
			SELECT id, title, roadmap_id, step_order, topic_id
			FROM steps
			WHERE roadmap_id = ? AND step_order > ?
			ORDER BY step_order, id
			LIMIT 1
		`, roadmapID, afterOrder)
		return scanStep(row)
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.Step), nil
}

func (r *StepRepository) CountByRoadmap(roadmapID string) (int, error) {
	result, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		var count int
		err := db.QueryRow(`SELECT COUNT(*) FROM steps WHERE roadmap_id = ?`, roadmapID).Scan(&count)
		return count, err
	})
	if err != nil {
		return 0, err
	}
	return result.(int), nil
}

func (r *StepRepository) GetMaxOrder(roadmapID string) (int, error) {
	result, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		var maxOrder sql.NullInt64
		err := db.QueryRow(`SELECT MAX(step_order) FROM steps WHERE roadmap_id = ?`, roadmapID).Scan(&maxOrder)
		if err != nil {
			return 0, err
		}
		if !maxOrder.Valid {
			return 0, nil
		}
		return int(maxOrder.Int64), nil
	})
	if err != nil {
		return 0, err
	}
	return result.(int), nil
}

func scanStep(row *sql.Row) (*models.Step, error) {
	var step models.Step
	err := row.Scan(&step.ID, &step.Title, &step.RoadmapID, &step.Order, &step.TopicID)
	if err != nil {
		return nil, err
	}
	return &step, nil
}
