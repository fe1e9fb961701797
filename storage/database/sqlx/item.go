package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/maendeleo/core/progress"
)

type itemRow struct {
	ID          string         `db:"id"`
	StudentID   string         `db:"student_id"`
	Name        string         `db:"name"`
	Description null.String    `db:"description"`
	ItemType    string         `db:"item_type"`
	Status      string         `db:"status"`
	ParentID    null.String    `db:"parent_id"`
	Ancestors   pq.StringArray `db:"ancestors"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

type itemRepository struct {
	db *sqlx.DB
}

var _ progress.Repository = (*itemRepository)(nil) // interface compliance check

func NewItemRepository(db *sql.DB) *itemRepository {
	return &itemRepository{db: sqlx.NewDb(db, "postgres")}
}

func (repo itemRepository) row(item progress.Item) itemRow {
	ancestors := item.Ancestors
	if ancestors == nil {
		ancestors = []string{}
	}
	return itemRow{
		ID:          item.ID,
		StudentID:   item.StudentID,
		Name:        item.Name,
		Description: null.NewString(item.Description, item.Description != ""),
		ItemType:    item.ItemType,
		Status:      item.Status,
		ParentID:    null.NewString(item.ParentID, item.ParentID != ""),
		Ancestors:   pq.StringArray(ancestors),
		CreatedAt:   item.CreatedAt.UTC(),
		UpdatedAt:   item.UpdatedAt.UTC(),
	}
}

func (repo itemRepository) unrow(row itemRow) progress.Item {
	return progress.Item{
		ID:          row.ID,
		StudentID:   row.StudentID,
		Name:        row.Name,
		Description: row.Description.String,
		ItemType:    row.ItemType,
		Status:      row.Status,
		ParentID:    row.ParentID.String,
		Ancestors:   []string(row.Ancestors),
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

func (repo itemRepository) unrowSlice(rows []itemRow) []progress.Item {
	items := make([]progress.Item, 0, len(rows))
	for _, row := range rows {
		items = append(items, repo.unrow(row))
	}
	return items
}

// trapNoRowsErr maps psql "no rows" err to progress.ErrNotFound
func (repo itemRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return progress.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo itemRepository) CreateItem(ctx context.Context, item progress.Item) (progress.Item, error) {
	item.ID = uuid.New().String()
	row := repo.row(item)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO progress_item (id, student_id, name, description, item_type, status, parent_id, ancestors, created_at, updated_at)
		VALUES (:id, :student_id, :name, :description, :item_type, :status, :parent_id, :ancestors, :created_at, :updated_at)`,
		row,
	)
	if err != nil {
		return progress.Item{}, errors.Wrap(err, "inserting progress item")
	}
	return repo.unrow(row), nil
}

func (repo itemRepository) GetItemByID(ctx context.Context, id string) (progress.Item, error) {
	if _, err := uuid.Parse(id); err != nil {
		return progress.Item{}, progress.ErrNotFound
	}
	var row itemRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM progress_item WHERE id = $1`, id); err != nil {
		return progress.Item{}, repo.trapNoRowsErr(err, "finding progress item by ID")
	}
	return repo.unrow(row), nil
}

func (repo itemRepository) QueryItemsByStudent(ctx context.Context, studentID string) ([]progress.Item, error) {
	var rows []itemRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT * FROM progress_item WHERE student_id = $1 ORDER BY created_at, id`, studentID)
	if err != nil {
		return nil, errors.Wrap(err, "querying progress items by student")
	}
	return repo.unrowSlice(rows), nil
}

func (repo itemRepository) QueryItemsByParent(ctx context.Context, parentID string) ([]progress.Item, error) {
	var rows []itemRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT * FROM progress_item WHERE parent_id = $1 ORDER BY created_at, id`, parentID)
	if err != nil {
		return nil, errors.Wrap(err, "querying progress items by parent")
	}
	return repo.unrowSlice(rows), nil
}

func (repo itemRepository) UpdateItemStatus(ctx context.Context, id, status string) (progress.Item, error) {
	var row itemRow
	err := repo.db.GetContext(ctx, &row, `
		UPDATE progress_item
		SET status = $2, updated_at = $3
		WHERE id = $1
		RETURNING *`,
		id, status, time.Now().UTC(),
	)
	if err != nil {
		return progress.Item{}, repo.trapNoRowsErr(err, "updating progress item status")
	}
	return repo.unrow(row), nil
}

// UpdateStatusByAncestor is the downward cascade: one bulk write against the
// GIN-indexed ancestors path covers all descendants regardless of depth.
func (repo itemRepository) UpdateStatusByAncestor(ctx context.Context, ancestorID, status string) (int, error) {
	res, err := repo.db.ExecContext(ctx, `
		UPDATE progress_item
		SET status = $2, updated_at = $3
		WHERE $1 = ANY (ancestors)`,
		ancestorID, status, time.Now().UTC(),
	)
	if err != nil {
		return 0, errors.Wrap(err, "cascading status to descendants")
	}
	cnt, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "counting cascaded items")
	}
	return int(cnt), nil
}
