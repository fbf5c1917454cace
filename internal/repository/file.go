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

type FileRepository interface {
	SaveFile(file *models.StoredFile) error
	GetFileByID(id string) (*models.StoredFile, error)
}

type fileRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewFileRepository(db *sqlx.DB, logger *zap.Logger) FileRepository {
	return &fileRepository{db: db, logger: logger}
}

func (r *fileRepository) SaveFile(file *models.StoredFile) error {
	if file.ID == "" {
		file.ID = uuid.NewString()
	}
	if file.CreatedAt.IsZero() {
		file.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO files (id, filename, content_type, sender, data, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.Exec(query, file.ID, file.Filename, file.ContentType, file.Sender, file.Data, file.CreatedAt)
	return err
}

func (r *fileRepository) GetFileByID(id string) (*models.StoredFile, error) {
	var file models.StoredFile
	query := `SELECT id, filename, content_type, sender, data, created_at FROM files WHERE id = $1`
	err := r.db.Get(&file, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &file, nil
}
