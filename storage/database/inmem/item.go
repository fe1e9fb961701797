package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/maendeleo/core/progress"
)

type itemRepository struct {
	db *DB
}

var _ progress.Repository = (*itemRepository)(nil)

func NewItemRepository(db *DB) *itemRepository {
	return &itemRepository{db: db}
}

func (repo *itemRepository) query(match func(progress.Item) bool) []progress.Item {
	items := make([]progress.Item, 0, len(repo.db.items))
	for _, it := range repo.db.items {
		if match(*it) {
			items = append(items, *it)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID < items[j].ID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items
}

func (repo *itemRepository) CreateItem(ctx context.Context, item progress.Item) (progress.Item, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	item.ID = uuid.New().String()
	if item.Ancestors == nil {
		item.Ancestors = []string{}
	}
	repo.db.items[item.ID] = &item
	return item, nil
}

func (repo *itemRepository) GetItemByID(ctx context.Context, id string) (progress.Item, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if it, ok := repo.db.items[id]; ok {
		return *it, nil
	}
	return progress.Item{}, progress.ErrNotFound
}

func (repo *itemRepository) QueryItemsByStudent(ctx context.Context, studentID string) ([]progress.Item, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	return repo.query(func(it progress.Item) bool { return it.StudentID == studentID }), nil
}

func (repo *itemRepository) QueryItemsByParent(ctx context.Context, parentID string) ([]progress.Item, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	return repo.query(func(it progress.Item) bool { return it.ParentID == parentID }), nil
}

func (repo *itemRepository) UpdateItemStatus(ctx context.Context, id, status string) (progress.Item, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	it, ok := repo.db.items[id]
	if !ok {
		return progress.Item{}, progress.ErrNotFound
	}
	it.Status = status
	it.UpdatedAt = time.Now().UTC()
	return *it, nil
}

func (repo *itemRepository) UpdateStatusByAncestor(ctx context.Context, ancestorID, status string) (int, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	now := time.Now().UTC()
	var cnt int
	for _, it := range repo.db.items {
		for _, anc := range it.Ancestors {
			if anc == ancestorID {
				it.Status = status
				it.UpdatedAt = now
				cnt++
				break
			}
		}
	}
	return cnt, nil
}
