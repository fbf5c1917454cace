package repository

import (
	"database/sql"
	"errors"
	"time"

	"privacy-chat/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type MessageRepository interface {
	SaveMessage(msg *models.Message) error
	GetMessageByID(id string) (*models.Message, error)
	GetMessageByFileID(fileID string) (*models.Message, error)
	ListMessages() ([]*models.Message, error)
	UpdateStatus(id string, status string) (*models.Message, error)
}

type messageRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewMessageRepository(db *sqlx.DB, logger *zap.Logger) MessageRepository {
	return &messageRepository{db: db, logger: logger}
}

// SaveMessage inserts a message, assigning an id and timestamp when the
// caller left them empty.
func (r *messageRepository) SaveMessage(msg *models.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	query := `INSERT INTO messages (id, sender, text, file_id, filename, content_type, private, receiver, status, timestamp)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.db.Exec(query, msg.ID, msg.Sender, msg.Text, msg.FileID, msg.Filename,
		msg.ContentType, msg.Private, msg.Receiver, msg.Status, msg.Timestamp)
	return err
}

func (r *messageRepository) GetMessageByID(id string) (*models.Message, error) {
	var msg models.Message
	query := `SELECT id, sender, text, file_id, filename, content_type, private, receiver, status, timestamp FROM messages WHERE id = $1`
	err := r.db.Get(&msg, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &msg, nil
}

func (r *messageRepository) GetMessageByFileID(fileID string) (*models.Message, error) {
	var msg models.Message
	query := `SELECT id, sender, text, file_id, filename, content_type, private, receiver, status, timestamp FROM messages WHERE file_id = $1`
	err := r.db.Get(&msg, query, fileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &msg, nil
}

// ListMessages returns every stored message in send order.
func (r *messageRepository) ListMessages() ([]*models.Message, error) {
	var messages []*models.Message
	query := `SELECT id, sender, text, file_id, filename, content_type, private, receiver, status, timestamp FROM messages ORDER BY timestamp ASC`
	err := r.db.Select(&messages, query)
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// UpdateStatus sets the status of one message (last write wins) and
// returns the updated row.
func (r *messageRepository) UpdateStatus(id string, status string) (*models.Message, error) {
	query := `UPDATE messages SET status = $1 WHERE id = $2`
	result, err := r.db.Exec(query, status, id)
	if err != nil {
		return nil, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rowsAffected == 0 {
		return nil, ErrNotFound
	}

	return r.GetMessageByID(id)
}
