package repository

import (
	"database/sql"
	"fmt"

	"MusicFlow/db"
	"MusicFlow/model"
)

// CoverRepository defines the interface for cover derivative operations.
type CoverRepository interface {
	GetCover(coverType string, linkID int64, size string) (*model.Cover, error)
	CreateCovers(covers []*model.Cover) error
}

// mysqlCoverRepository implements CoverRepository for MySQL.
type mysqlCoverRepository struct {
	DB *sql.DB
}

// NewMySQLCoverRepository creates a new instance of mysqlCoverRepository.
func NewMySQLCoverRepository() CoverRepository {
	return &mysqlCoverRepository{DB: db.DB}
}

// GetCover retrieves one cover derivative by its (type, link, size) key.
func (r *mysqlCoverRepository) GetCover(coverType string, linkID int64, size string) (*model.Cover, error) {
	query := `SELECT type, link_id, format, size, length, width, height, base64
	           FROM cover WHERE type = ? AND link_id = ? AND size = ?`
	cover := &model.Cover{}
	err := r.DB.QueryRow(query, coverType, linkID, size).Scan(&cover.Type, &cover.LinkID,
		&cover.Format, &cover.Size, &cover.Length, &cover.Width, &cover.Height, &cover.Base64)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Cover not found
		}
		return nil, fmt.Errorf("failed to scan cover %s/%d/%s: %w", coverType, linkID, size, err)
	}
	return cover, nil
}

// CreateCovers inserts a batch of cover derivatives in one transaction.
// 同一张封面的所有尺寸要么都入库要么都不入库
func (r *mysqlCoverRepository) CreateCovers(covers []*model.Cover) error {
	if len(covers) == 0 {
		return nil
	}

	tx, err := r.DB.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction for CreateCovers: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO cover (type, link_id, format, size, length, width, height, base64)
	                          VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement for CreateCovers: %w", err)
	}
	defer stmt.Close()

	for _, cover := range covers {
		if _, err := stmt.Exec(cover.Type, cover.LinkID, cover.Format, cover.Size,
			cover.Length, cover.Width, cover.Height, cover.Base64); err != nil {
			return fmt.Errorf("failed to insert cover %s/%d/%s: %w", cover.Type, cover.LinkID, cover.Size, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit CreateCovers: %w", err)
	}
	return nil
}
