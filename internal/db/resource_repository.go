package db

import (
	"database/sql"

	"github.com/ad/go-roadmap-progress/internal/models"
)

type ResourceRepository struct {
	queue *DBQueue
}

func NewResourceRepository(queue *DBQueue) *ResourceRepository {
	return &ResourceRepository{queue: queue}
}

func (r *ResourceRepository) Create(resource *models.Resource) error {
	_, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		_, err := db.Exec(`
			INSERT INTO resources (id, title, link, topic_id, type, language, difficulty)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, resource.ID, resource.Title, resource.Link, resource.TopicID,
			resource.Type, resource.Language, resource.Difficulty)
		return nil, err
	})
	return err
}

func (r *ResourceRepository) GetByID(id string) (*models.Resource, error) {
	result, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		row := db.QueryRow(`
			SELECT id, title, link, topic_id, type, language, difficulty
			FROM resources WHERE id = ?
		`, id)
		var res models.Resource
		err := row.Scan(&res.ID, &res.Title, &res.Link, &res.TopicID, &res.Type, &res.Language, &res.Difficulty)
		if err != nil {
			return nil, err
		}
		return &res, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.Resource), nil
}

// Search matches titles by prefix for autocomplete; GetAll with a
// filter matches anywhere in the title.
func (r *ResourceRepository) Search(titlePrefix string) ([]*models.Resource, error) {
	return r.query(`
		SELECT id, title, link, topic_id, type, language, difficulty
		FROM resources
		WHERE title LIKE ? COLLATE NOCASE
		ORDER BY title
	`, titlePrefix+"%")
}

func (r *ResourceRepository) GetAll(titleFilter string) ([]*models.Resource, error) {
	if titleFilter == "" {
		return r.query(`
			SELECT id, title, link, topic_id, type, language, difficulty
			FROM resources ORDER BY title
		`)
	}
	return r.query(`
		SELECT id, title, link, topic_id, type, language, difficulty
		FROM resources
		WHERE title LIKE ? COLLATE NOCASE
		ORDER BY title
	`, "%"+titleFilter+"%")
}

func (r *ResourceRepository) GetByTopic(topicID string) ([]*models.Resource, error) {
	return r.query(`
		SELECT id, title, link, topic_id, type, language, difficulty
		FROM resources WHERE topic_id = ? ORDER BY title
	`, topicID)
}

func (r *ResourceRepository) Update(resource *models.Resource) error {
	_, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		res, err := db.Exec(`
			UPDATE resources SET title = ?, link = ?, topic_id = ?, type = ?, language = ?, difficulty = ?
			WHERE id = ?
		`, resource.Title, resource.Link, resource.TopicID,
			resource.Type, resource.Language, resource.Difficulty, resource.ID)
		if err != nil {
			return nil, err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if affected == 0 {
			return nil, sql.ErrNoRows
		}
		return nil, nil
	})
	return err
}

func (r *ResourceRepository) Delete(id string) error {
	_, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		res, err := db.Exec(`DELETE FROM resources WHERE id = ?`, id)
		if err != nil {
			return nil, err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if affected == 0 {
			return nil, sql.ErrNoRows
		}
		return nil, nil
	})
	return err
}

func (r *ResourceRepository) query(query string, args ...interface{}) ([]*models.Resource, error) {
	result, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		rows, err := db.Query(query, args...)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var resources []*models.Resource
		for rows.Next() {
			var res models.Resource
			if err := rows.Scan(&res.ID, &res.Title, &res.Link, &res.TopicID, &res.Type, &res.Language, &res.Difficulty); err != nil {
				return nil, err
			}
			resources = append(resources, &res)
		}
		return resources, rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return result.([]*models.Resource), nil
}
