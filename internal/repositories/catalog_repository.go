package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	intconfig "medspa/internal/config"
	"medspa/internal/domain"
	"medspa/internal/domain/models"
)

// CatalogRepository reads clients, services and products owned by the main app.
type CatalogRepository struct {
	DB *sql.DB
}

func (r CatalogRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

func (r CatalogRepository) GetClient(ctx context.Context, id int64) (models.Client, error) {
	var c models.Client
	err := r.db().QueryRowContext(ctx, `
		SELECT id, COALESCE(first_name,''), COALESCE(last_name,''), COALESCE(email,''), COALESCE(phone,'')
		FROM clients
		WHERE id=? LIMIT 1`, id).Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Phone)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Client{}, domain.NotFoundError{Resource: "client", Err: err}
		}
		return models.Client{}, fmt.Errorf("get client: %w", err)
	}
	return c, nil
}

func catalogTable(t models.ItemType) (string, bool) {
	switch t {
	case models.ItemService:
		return "services", true
	case models.ItemProduct:
		return "products", true
	default:
		return "", false
	}
}

// GetItem returns the current catalog name and price of a service or product.
func (r CatalogRepository) GetItem(ctx context.Context, t models.ItemType, id int64) (models.CatalogItem, error) {
	table, ok := catalogTable(t)
	if !ok {
		return models.CatalogItem{}, domain.ValidationError{Field: "item_type", Msg: "must be service or product"}
	}

	item := models.CatalogItem{Type: t}
	err := r.db().QueryRowContext(ctx, `SELECT id, name, price FROM `+table+` WHERE id=? LIMIT 1`, id).
		Scan(&item.ID, &item.Name, &item.Price)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.CatalogItem{}, domain.NotFoundError{Resource: string(t), Err: err}
		}
		return models.CatalogItem{}, fmt.Errorf("get %s: %w", t, err)
	}
	return item, nil
}
