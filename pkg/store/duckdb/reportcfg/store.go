package reportcfg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ct-tools/cloudscope/pkg/models/store"
	"github.com/ct-tools/cloudscope/pkg/store/duckdb"
)

var ErrNotFound = errors.New("report config not found")

// Store persists saved report configurations. Recurring ones feed the
// scheduler on startup.
type Store interface {
	Save(ctx context.Context, cfg store.ReportConfig) error
	Get(ctx context.Context, id string) (*store.ReportConfig, error)
	ListRecurring(ctx context.Context) ([]store.ReportConfig, error)
	Delete(ctx context.Context, id string) error
}

type configStore struct {
	db *sql.DB
}

func NewStore(db *sql.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &configStore{db: db}, nil
}

// Save upserts by id, so resubmitting a schedule replaces the old one.
func (c *configStore) Save(ctx context.Context, cfg store.ReportConfig) error {
	query := `
		INSERT INTO report_configs (
			id, account, provider, report_type, resources, frequency, format, email
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			account = excluded.account,
			provider = excluded.provider,
			report_type = excluded.report_type,
			resources = excluded.resources,
			frequency = excluded.frequency,
			format = excluded.format,
			email = excluded.email,
			updated_at = CURRENT_TIMESTAMP`

	tx := duckdb.GetTransaction(ctx)
	var err error
	if tx == nil {
		_, err = c.db.ExecContext(ctx, query,
			cfg.ID, cfg.Account, cfg.Provider, cfg.Type,
			cfg.Resources, cfg.Frequency, cfg.Format, cfg.Email,
		)
	} else {
		_, err = tx.ExecContext(ctx, query,
			cfg.ID, cfg.Account, cfg.Provider, cfg.Type,
			cfg.Resources, cfg.Frequency, cfg.Format, cfg.Email,
		)
	}
	if err != nil {
		return fmt.Errorf("save report config: %w", err)
	}
	return nil
}

func (c *configStore) Get(ctx context.Context, id string) (*store.ReportConfig, error) {
	query := `
		SELECT id, account, provider, report_type, resources, frequency, format, email, created_at, updated_at
		FROM report_configs
		WHERE id = ?`

	var cfg store.ReportConfig
	err := c.db.QueryRowContext(ctx, query, id).Scan(
		&cfg.ID, &cfg.Account, &cfg.Provider, &cfg.Type,
		&cfg.Resources, &cfg.Frequency, &cfg.Format, &cfg.Email,
		&cfg.CreatedAt, &cfg.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get report config: %w", err)
	}
	return &cfg, nil
}

func (c *configStore) ListRecurring(ctx context.Context) ([]store.ReportConfig, error) {
	query := `
		SELECT id, account, provider, report_type, resources, frequency, format, email, created_at, updated_at
		FROM report_configs
		WHERE frequency IN ('daily', 'weekly')
		ORDER BY created_at`

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list recurring configs: %w", err)
	}
	defer rows.Close()

	configs := make([]store.ReportConfig, 0)
	for rows.Next() {
		var cfg store.ReportConfig
		if err := rows.Scan(
			&cfg.ID, &cfg.Account, &cfg.Provider, &cfg.Type,
			&cfg.Resources, &cfg.Frequency, &cfg.Format, &cfg.Email,
			&cfg.CreatedAt, &cfg.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan report config: %w", err)
		}
		configs = append(configs, cfg)
	}
	return configs, rows.Err()
}

func (c *configStore) Delete(ctx context.Context, id string) error {
	tx := duckdb.GetTransaction(ctx)
	query := `DELETE FROM report_configs WHERE id = ?`

	var res sql.Result
	var err error
	if tx == nil {
		res, err = c.db.ExecContext(ctx, query, id)
	} else {
		res, err = tx.ExecContext(ctx, query, id)
	}
	if err != nil {
		return fmt.Errorf("delete report config: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete report config: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
