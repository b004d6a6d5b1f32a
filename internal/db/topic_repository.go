package db

import (
	"database/sql"
	"time"

	"github.com/ad/go-roadmap-progress/internal/models"
)

type TopicRepository struct {
	queue *DBQueue
}

func NewTopicRepository(queue *DBQueue) *TopicRepository {
	return &TopicRepository{queue: queue}
}

func (r *TopicRepository) Create(topic *models.Topic) error {
	tags, err := topic.TagsJSON()
	if err != nil {
		return err
	}
	_, err = r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		_, err := db.Exec(`
			INSERT INTO topics (id, title, description, tags)
			VALUES (?, ?, ?, ?)
		`, topic.ID, topic.Title, topic.Description, tags)
		return nil, err
	})
	return err
}

func (r *TopicRepository) GetByID(id string) (*models.Topic, error) {
	result, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		row := db.QueryRow(`
			SELECT id, title, description, tags, created_at, updated_at
			FROM topics WHERE id = ?
		`, id)
		return scanTopic(row)
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.Topic), nil
}

func (r *TopicRepository) GetAll(titleFilter string) ([]*models.Topic, error) {
	result, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		query := `
			SELECT id, title, description, tags, created_at, updated_at
			FROM topics`
		var args []interface{}
		if titleFilter != "" {
			query += ` WHERE title LIKE ? COLLATE NOCASE`
			args = append(args, "%"+titleFilter+"%")
		}
		query += ` ORDER BY title`

		rows, err := db.Query(query, args...)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var topics []*models.Topic
		for rows.Next() {
			var topic models.Topic
			var tags string
			if err := rows.Scan(&topic.ID, &topic.Title, &topic.Description, &tags, &topic.CreatedAt, &topic.UpdatedAt); err != nil {
				return nil, err
			}
			parsed, err := models.ParseTags(tags)
			if err != nil {
				return nil, err
			}
			topic.Tags = parsed
			topics = append(topics, &topic)
		}
		return topics, rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return result.([]*models.Topic), nil
}

func (r *TopicRepository) Update(topic *models.Topic) error {
	tags, err := topic.TagsJSON()
	if err != nil {
		return err
	}
	_, err = r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		res, err := db.Exec(`
			UPDATE topics SET title = ?, description = ?, tags = ?, updated_at = ?
			WHERE id = ?
		`, topic.Title, topic.Description, tags, time.Now().UTC(), topic.ID)
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

func (r *TopicRepository) Delete(id string) error {
	_, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		res, err := db.Exec(`DELETE FROM topics WHERE id = ?`, id)
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

func scanTopic(row *sql.Row) (*models.Topic, error) {
	var topic models.Topic
	var tags string
	err := row.Scan(&topic.ID, &topic.Title, &topic.Description, &tags, &topic.CreatedAt, &topic.UpdatedAt)
	if err != nil {
		return nil, err
	}
	parsed, err := models.ParseTags(tags)
	if err != nil {
		return nil, err
	}
	topic.Tags = parsed
	return &topic, nil
}
