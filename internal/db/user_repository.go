package db

import (
	"database/sql"

	"github.com/ad/go-roadmap-progress/internal/models"
)

type UserRepository struct {
	queue *DBQueue
}

func NewUserRepository(queue *DBQueue) *UserRepository {
	return &UserRepository{queue: queue}
}

func (r *UserRepository) Create(user *models.User) error {
	_, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		_, err := db.Exec(`
			INSERT INTO users (id, username, email, name, profile_picture, telegram_chat_id)
			VALUES (?, ?, ?, ?, ?, ?)
		`, user.ID, user.Username, user.Email, user.Name, user.ProfilePicture, user.TelegramChatID)
		return nil, err
	})
	return err
}

func (r *UserRepository) GetByID(id string) (*models.User, error) {
	result, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		row := db.QueryRow(`
			SELECT id, username, email, name, profile_picture, telegram_chat_id, created_at
			FROM users WHERE id = ?
		`, id)
		return scanUser(row)
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.User), nil
}

func (r *UserRepository) GetAll() ([]*models.User, error) {
	result, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		rows, err := db.Query(`
			SELECT id, username, email, name, profile_picture, telegram_chat_id, created_at
			FROM users ORDER BY created_at
		`)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var users []*models.User
		for rows.Next() {
			var user models.User
			var name, picture sql.NullString
			var chatID sql.NullInt64
			if err := rows.Scan(&user.ID, &user.Username, &user.Email, &name, &picture, &chatID, &user.CreatedAt); err != nil {
				return nil, err
			}
			user.Name = name.String
			user.ProfilePicture = picture.String
			user.TelegramChatID = chatID.Int64
			users = append(users, &user)
		}
		return users, rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return result.([]*models.User), nil
}

func (r *UserRepository) Exists(id string) (bool, error) {
	result, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		var count int
		err := db.QueryRow(`SELECT COUNT(*) FROM users WHERE id = ?`, id).Scan(&count)
		return count > 0, err
	})
	if err != nil {
		return false, err
	}
	return result.(bool), nil
}

func (r *UserRepository) UpdateProfile(id, name, profilePicture string, telegramChatID int64) error {
	_, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		res, err := db.Exec(`
			UPDATE users SET name = ?, profile_picture = ?, telegram_chat_id = ?
			WHERE id = ?
		`, name, profilePicture, telegramChatID, id)
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

// GetProgressIDs returns the user's progress back-reference list. Link
// rows are written in the same transaction that creates a progress
// record, so this list always mirrors the records that exist.
func (r *UserRepository) GetProgressIDs(userID string) ([]string, error) {
	result, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		rows, err := db.Query(`
			SELECT progress_id FROM user_progress_links WHERE user_id = ?
		`, userID)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var ids []string
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
		return ids, rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return result.([]string), nil
}

// Delete removes the user together with all progress state that points
// at them. Cascading here keeps the engine itself free of deletes.
func (r *UserRepository) Delete(id string) error {
	_, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		return InTx(db, func(tx *sql.Tx) (interface{}, error) {
			if _, err := tx.Exec(`
				DELETE FROM completed_topic_resources WHERE progress_id IN
					(SELECT id FROM progress WHERE user_id = ?)
			`, id); err != nil {
				return nil, err
			}
			if _, err := tx.Exec(`
				DELETE FROM completed_topics WHERE progress_id IN
					(SELECT id FROM progress WHERE user_id = ?)
			`, id); err != nil {
				return nil, err
			}
			if _, err := tx.Exec(`
				DELETE FROM completed_steps WHERE progress_id IN
					(SELECT id FROM progress WHERE user_id = ?)
			`, id); err != nil {
				return nil, err
			}
			if _, err := tx.Exec(`DELETE FROM user_progress_links WHERE user_id = ?`, id); err != nil {
				return nil, err
			}
			if _, err := tx.Exec(`DELETE FROM progress WHERE user_id = ?`, id); err != nil {
				return nil, err
			}
			res, err := tx.Exec(`DELETE FROM users WHERE id = ?`, id)
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

func scanUser(row *sql.Row) (*models.User, error) {
	var user models.User
	var name, picture sql.NullString
	var chatID sql.NullInt64
	err := row.Scan(&user.ID, &user.Username, &user.Email, &name, &picture, &chatID, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	user.Name = name.String
	user.ProfilePicture = picture.String
	user.TelegramChatID = chatID.Int64
	return &user, nil
}
