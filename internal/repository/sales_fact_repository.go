package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pumphouse/salesfeed/internal/db"
	"github.com/pumphouse/salesfeed/internal/domain"
)

type salesFactRepository struct {
	conn *db.Connection
}

// NewSalesFactRepository creates the pgx-backed fact store.
func NewSalesFactRepository(conn *db.Connection) SalesFactRepository {
	return &salesFactRepository{conn: conn}
}

func (r *salesFactRepository) ExistingKeys(ctx context.Context, keys []domain.FactKey) (map[domain.FactKey]struct{}, error) {
	existing := make(map[domain.FactKey]struct{}, len(keys))
	if len(keys) == 0 {
		return existing, nil
	}

	var sb strings.Builder
	args := make([]any, 0, len(keys)*4)
	for i, key := range keys {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 4
		fmt.Fprintf(&sb, "($%d::int, $%d::int, $%d::text, $%d::text)", base+1, base+2, base+3, base+4)
		args = append(args, key.FiscalYear, key.FiscalWeek, key.Product, key.StoreCode)
	}

	query := fmt.Sprintf(
		`SELECT fiscal_year, fiscal_week, product, store_code
		 FROM sales_facts
		 WHERE (fiscal_year, fiscal_week, product, store_code) IN (%s)`,
		sb.String(),
	)

	rows, err := r.conn.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query existing fact keys: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key domain.FactKey
		if err := rows.Scan(&key.FiscalYear, &key.FiscalWeek, &key.Product, &key.StoreCode); err != nil {
			return nil, fmt.Errorf("failed to scan fact key: %w", err)
		}
		existing[key] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate fact keys: %w", err)
	}

	return existing, nil
}

func (r *salesFactRepository) ApplyBatch(ctx context.Context, inserts, updates []domain.SalesFact) error {
	if len(inserts) == 0 && len(updates) == 0 {
		return nil
	}

	return r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}

		for _, fact := range inserts {
			batch.Queue(
				`INSERT INTO sales_facts
				 (fiscal_year, fiscal_week, brand, product, container_ml, store_code,
				  qty_sold, retail_price, dollars_sold, source_file)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
				fact.FiscalYear, fact.FiscalWeek, fact.Brand, fact.Product,
				fact.ContainerMl, fact.StoreCode, fact.QtySold, fact.RetailPrice,
				fact.DollarsSold, fact.SourceFile,
			)
		}

		// Updates replace measures only; identity fields stay untouched.
		for _, fact := range updates {
			batch.Queue(
				`UPDATE sales_facts
				 SET qty_sold = $1, retail_price = $2, dollars_sold = $3,
				     source_file = $4, updated_at = now()
				 WHERE fiscal_year = $5 AND fiscal_week = $6 AND product = $7 AND store_code = $8`,
				fact.QtySold, fact.RetailPrice, fact.DollarsSold, fact.SourceFile,
				fact.FiscalYear, fact.FiscalWeek, fact.Product, fact.StoreCode,
			)
		}

		results := tx.SendBatch(ctx, batch)
		defer results.Close()

		for i := 0; i < batch.Len(); i++ {
			if _, err := results.Exec(); err != nil {
				return fmt.Errorf("failed to apply fact batch: %w", err)
			}
		}

		return nil
	})
}

func (r *salesFactRepository) ListJoined(ctx context.Context, filter FactFilter) ([]domain.FactWithStore, error) {
	var conditions []string
	var args []any

	appendCondition := func(clause string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(clause, len(args)))
	}

	if filter.FiscalYear != nil {
		appendCondition("s.fiscal_year = $%d", *filter.FiscalYear)
	}
	if filter.FiscalWeek != nil {
		appendCondition("s.fiscal_week = $%d", *filter.FiscalWeek)
	}
	if filter.Brand != "" {
		appendCondition("lower(s.brand) = lower($%d)", filter.Brand)
	}
	if filter.StoreCode != "" {
		appendCondition("s.store_code = $%d", domain.PadStoreCode(filter.StoreCode))
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 500
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)

	query := fmt.Sprintf(
		`SELECT s.id, s.fiscal_year, s.fiscal_week, s.brand, s.product, s.container_ml,
		        s.store_code, s.qty_sold, s.retail_price, s.dollars_sold, s.source_file,
		        s.created_at, s.updated_at,
		        st.store_name, st.city, st.province, st.lat, st.lon
		 FROM sales_facts s
		 LEFT JOIN stores st ON st.store_code = s.store_code
		 %s
		 ORDER BY s.fiscal_year, s.fiscal_week, s.product, s.store_code
		 LIMIT $%d OFFSET $%d`,
		where, len(args)-1, len(args),
	)

	rows, err := r.conn.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list facts: %w", err)
	}
	defer rows.Close()

	facts := []domain.FactWithStore{}
	for rows.Next() {
		var (
			fact      domain.FactWithStore
			storeName pgtype.Text
			city      pgtype.Text
			province  pgtype.Text
			lat       pgtype.Float8
			lon       pgtype.Float8
		)
		if err := rows.Scan(
			&fact.ID, &fact.FiscalYear, &fact.FiscalWeek, &fact.Brand, &fact.Product,
			&fact.ContainerMl, &fact.StoreCode, &fact.QtySold, &fact.RetailPrice,
			&fact.DollarsSold, &fact.SourceFile, &fact.CreatedAt, &fact.UpdatedAt,
			&storeName, &city, &province, &lat, &lon,
		); err != nil {
			return nil, fmt.Errorf("failed to scan fact row: %w", err)
		}

		if storeName.Valid {
			fact.StoreName = storeName.String
		}
		if city.Valid {
			fact.City = city.String
		}
		if province.Valid {
			fact.Province = province.String
		}
		if lat.Valid {
			value := lat.Float64
			fact.Lat = &value
		}
		if lon.Valid {
			value := lon.Float64
			fact.Lon = &value
		}

		facts = append(facts, fact)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate fact rows: %w", err)
	}

	return facts, nil
}

func (r *salesFactRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.conn.Pool.QueryRow(ctx, `SELECT count(*) FROM sales_facts`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count facts: %w", err)
	}
	return count, nil
}
