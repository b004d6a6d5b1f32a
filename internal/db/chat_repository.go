package db

import (
	"database/sql"
	"time"

	"github.com/ad/go-roadmap-progress/internal/models"
)

type ChatRepository struct {
	queue *DBQueue
}

func NewChatRepository(queue *DBQueue) *ChatRepository {
	return &ChatRepository{queue: queue}
}

// Create persists the chat and any initial messages in one transaction.
// Message order is the insertion order, kept in a per-chat sequence.
func (r *ChatRepository) Create(chat *models.Chat) error {
	_, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		return InTx(db, func(tx *sql.Tx) (interface{}, error) {
			_, err := tx.Exec(`
				INSERT INTO chats (id, title) VALUES (?, ?)
			`, chat.ID, chat.Title)
			if err != nil {
				return nil, err
			}
			for i, msg := range chat.Messages {
				if _, err := tx.Exec(`
					INSERT INTO chat_messages (chat_id, seq, role, content, timestamp)
					VALUES (?, ?, ?, ?, ?)
				`, chat.ID, i+1, msg.Role, msg.Content, msg.Timestamp); err != nil {
					return nil, err
				}
			}
			return nil, nil
		})
	})
	return err
}

func (r *ChatRepository) GetByID(id string) (*models.Chat, error) {
	result, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		row := db.QueryRow(`
			SELECT id, title, created_at, updated_at
			FROM chats WHERE id = ?
		`, id)
		chat, err := scanChat(row)
		if err != nil {
			return nil, err
		}
		if err := r.loadMessages(db, chat); err != nil {
			return nil, err
		}
		return chat, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.Chat), nil
}

func (r *ChatRepository) GetAll() ([]*models.Chat, error) {
	result, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		rows, err := db.Query(`
			SELECT id, title, created_at, updated_at
			FROM chats ORDER BY created_at, id
		`)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var chats []*models.Chat
		for rows.Next() {
			var chat models.Chat
			if err := rows.Scan(&chat.ID, &chat.Title, &chat.CreatedAt, &chat.UpdatedAt); err != nil {
				return nil, err
			}
			chats = append(chats, &chat)
		}
		if err := rows.Err(); err != nil {
			return nil, err
		}

		for _, chat := range chats {
			if err := r.loadMessages(db, chat); err != nil {
				return nil, err
			}
		}
		return chats, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]*models.Chat), nil
}

// Update renames the chat and/or appends messages after the existing
// ones, as a single unit.
func (r *ChatRepository) Update(id string, title *string, messages []models.ChatMessage) error {
	_, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		return InTx(db, func(tx *sql.Tx) (interface{}, error) {
			var maxSeq sql.NullInt64
			err := tx.QueryRow(`
				SELECT MAX(seq) FROM chat_messages WHERE chat_id = ?
			`, id).Scan(&maxSeq)
			if err != nil {
				return nil, err
			}

			if title != nil {
				res, err := tx.Exec(`
					UPDATE chats SET title = ?, updated_at = ? WHERE id = ?
				`, *title, time.Now().UTC(), id)
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
			} else {
				res, err := tx.Exec(`
					UPDATE chats SET updated_at = ? WHERE id = ?
				`, time.Now().UTC(), id)
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
			}

			seq := maxSeq.Int64
			for _, msg := range messages {
				seq++
				if _, err := tx.Exec(`
					INSERT INTO chat_messages (chat_id, seq, role, content, timestamp)
					VALUES (?, ?, ?, ?, ?)
				`, id, seq, msg.Role, msg.Content, msg.Timestamp); err != nil {
					return nil, err
				}
			}
			return nil, nil
		})
	})
	return err
}

func (r *ChatRepository) Delete(id string) error {
	_, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		return InTx(db, func(tx *sql.Tx) (interface{}, error) {
			if _, err := tx.Exec(`DELETE FROM chat_messages WHERE chat_id = ?`, id); err != nil {
				return nil, err
			}
			res, err := tx.Exec(`DELETE FROM chats WHERE id = ?`, id)
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

func (r *ChatRepository) loadMessages(db *sql.DB, chat *models.Chat) error {
	rows, err := db.Query(`
		SELECT role, content, timestamp
		FROM chat_messages WHERE chat_id = ? ORDER BY seq
	`, chat.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	chat.Messages = []models.ChatMessage{}
	for rows.Next() {
		var msg models.ChatMessage
		if err := rows.Scan(&msg.Role, &msg.Content, &msg.Timestamp); err != nil {
			return err
		}
		chat.Messages = append(chat.Messages, msg)
	}
	return rows.Err()
}

func scanChat(row *sql.Row) (*models.Chat, error) {
	var chat models.Chat
	err := row.Scan(&chat.ID, &chat.Title, &chat.CreatedAt, &chat.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &chat, nil
}
