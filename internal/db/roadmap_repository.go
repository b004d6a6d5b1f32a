package db

import (
	"database/sql"
	"time"

	"github.com/ad/go-roadmap-progress/internal/models"
)

type RoadmapRepository struct {
	queue *DBQueue
}

func NewRoadmapRepository(queue *DBQueue) *RoadmapRepository {
	return &RoadmapRepository{queue: queue}
}

func (r *RoadmapRepository) Create(roadmap *models.Roadmap) error {
	_, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		_, err := db.Exec(`
			INSERT INTO roadmaps (id, title, description, category)
			VALUES (?, ?, ?, ?)
		`, roadmap.ID, roadmap.Title, roadmap.Description, roadmap.Category)
		return nil, err
	})
	return err
}

func (r *RoadmapRepository) GetByID(id string) (*models.Roadmap, error) {
	result, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		row := db.QueryRow(`
			SELECT id, title, description, category, created_at, updated_at
			FROM roadmaps WHERE id = ?
		`, id)
		return scanRoadmap(row)
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.Roadmap), nil
}

// GetAll lists roadmaps, optionally filtered by a case-insensitive
// title substring and an exact category.
func (r *RoadmapRepository) GetAll(titleFilter, category string) ([]*models.Roadmap, error) {
	result, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		query := `
			SELECT id, title, description, category, created_at, updated_at
			FROM roadmaps WHERE 1=1`
		var args []interface{}
		if titleFilter != "" {
			query += ` AND title LIKE ? COLLATE NOCASE`
			args = append(args, "%"+titleFilter+"%")
		}
		if category != "" {
			query += ` AND category = ?`
			args = append(args, category)
		}
		query += ` ORDER BY title`

		rows, err := db.Query(query, args...)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var roadmaps []*models.Roadmap
		for rows.Next() {
			var rm models.Roadmap
			if err := rows.Scan(&rm.ID, &rm.Title, &rm.Description, &rm.Category, &rm.CreatedAt, &rm.UpdatedAt); err != nil {
				return nil, err
			}
			roadmaps = append(roadmaps, &rm)
		}
		return roadmaps, rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return result.([]*models.Roadmap), nil
}

func (r *RoadmapRepository) Exists(id string) (bool, error) {
	result, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		var count int
		err := db.QueryRow(`SELECT COUNT(*) FROM roadmaps WHERE id = ?`, id).Scan(&count)
		return count > 0, err
	})
	if err != nil {
		return false, err
	}
	return result.(bool), nil
}

func (r *RoadmapRepository) Update(roadmap *models.Roadmap) error {
	_, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		res, err := db.Exec(`
			UPDATE roadmaps SET title = ?, description = ?, category = ?, updated_at = ?
			WHERE id = ?
		`, roadmap.Title, roadmap.Description, roadmap.Category, time.Now().UTC(), roadmap.ID)
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

func (r *RoadmapRepository) Delete(id string) error {
	_, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		return InTx(db, func(tx *sql.Tx) (interface{}, error) {
			if _, err := tx.Exec(`DELETE FROM steps WHERE roadmap_id = ?`, id); err != nil {
				return nil, err
			}
			res, err := tx.Exec(`DELETE FROM roadmaps WHERE id = ?`, id)
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
	})
	return err
}

func scanRoadmap(row *sql.Row) (*models.Roadmap, error) {
	var rm models.Roadmap
	err := row.Scan(&rm.ID, &rm.Title, &rm.Description, &rm.Category, &rm.CreatedAt, &rm.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &rm, nil
}
