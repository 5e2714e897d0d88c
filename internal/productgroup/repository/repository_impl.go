package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/salesdesk/internal/productgroup/domain"
	"github.com/smallbiznis/salesdesk/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, group *domain.ProductGroup) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO product_groups (id, code, name, description, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		group.ID,
		group.Code,
		group.Name,
		group.Description,
		group.CreatedAt,
		group.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.ProductGroup, error) {
	var group domain.ProductGroup
	err := db.WithContext(ctx).Raw(
		`SELECT id, code, name, description, created_at, updated_at
		 FROM product_groups WHERE id = ?`,
		id,
	).Scan(&group).Error
	if err != nil {
		return nil, err
	}
	if group.ID == 0 {
		return nil, nil
	}
	return &group, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, page pagination.Pagination) ([]*domain.ProductGroup, error) {
	stmt, err := page.Apply(db.WithContext(ctx).Model(&domain.ProductGroup{}))
	if err != nil {
		return nil, err
	}
	var groups []*domain.ProductGroup
	if err := stmt.Find(&groups).Error; err != nil {
		return nil, err
	}
	return groups, nil
}

func (r *repo) ExistingIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]snowflake.ID, error) {
	stmt := db.WithContext(ctx).Model(&domain.ProductGroup{})
	if ids != nil {
		if len(ids) == 0 {
			return []snowflake.ID{}, nil
		}
		stmt = stmt.Where("id IN ?", ids)
	}
	var out []snowflake.ID
	if err := stmt.Order("id asc").Pluck("id", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error) {
	res := db.WithContext(ctx).Exec(`DELETE FROM product_groups WHERE id = ?`, id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
