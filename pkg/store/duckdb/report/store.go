package report

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ct-tools/cloudscope/pkg/models/store"
	"github.com/ct-tools/cloudscope/pkg/store/duckdb"
)

var ErrNotFound = errors.New("report not found")

// Store persists submitted reports and their status transitions.
// Writes honor a transaction carried on the context.
type Store interface {
	Create(ctx context.Context, report store.Report) error
	Get(ctx context.Context, id string) (*store.Report, error)
	UpdateStatus(ctx context.Context, id string, status string, downloadURL, errMsg *string) error
	List(ctx context.Context, account string, limit int) ([]store.Report, error)
	Stats(ctx context.Context) (*store.ReportStats, error)
}

type reportStore struct {
	db *sql.DB
}

func NewStore(db *sql.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &reportStore{db: db}, nil
}

func (r *reportStore) Create(ctx context.Context, report store.Report) error {
	query := `
		INSERT INTO reports (
			id, account, provider, report_type, format, status,
			download_url, error, requested_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	tx := duckdb.GetTransaction(ctx)
	var err error
	if tx == nil {
		_, err = r.db.ExecContext(ctx, query,
			report.ID, report.Account, report.Provider, report.ReportType,
			report.Format, report.Status, report.DownloadURL, report.Error,
			report.RequestedAt, report.UpdatedAt,
		)
	} else {
		_, err = tx.ExecContext(ctx, query,
			report.ID, report.Account, report.Provider, report.ReportType,
			report.Format, report.Status, report.DownloadURL, report.Error,
			report.RequestedAt, report.UpdatedAt,
		)
	}
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

func (r *reportStore) Get(ctx context.Context, id string) (*store.Report, error) {
	query := `
		SELECT id, account, provider, report_type, format, status,
			download_url, error, requested_at, updated_at
		FROM reports
		WHERE id = ?`

	row := r.db.QueryRowContext(ctx, query, id)
	report, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}
	return report, nil
}

func (r *reportStore) UpdateStatus(ctx context.Context, id string, status string, downloadURL, errMsg *string) error {
	query := `
		UPDATE reports
		SET status = ?, download_url = ?, error = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`

	tx := duckdb.GetTransaction(ctx)
	var res sql.Result
	var err error
	if tx == nil {
		res, err = r.db.ExecContext(ctx, query, status, downloadURL, errMsg, id)
	} else {
		res, err = tx.ExecContext(ctx, query, status, downloadURL, errMsg, id)
	}
	if err != nil {
		return fmt.Errorf("update report status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update report status: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *reportStore) List(ctx context.Context, account string, limit int) ([]store.Report, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, account, provider, report_type, format, status,
			download_url, error, requested_at, updated_at
		FROM reports`
	args := []interface{}{}
	if account != "" {
		query += " WHERE account = ?"
		args = append(args, account)
	}
	query += " ORDER BY requested_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()
	return scanReportRows(rows)
}

func (r *reportStore) Stats(ctx context.Context) (*store.ReportStats, error) {
	query := `SELECT status, COUNT(*) FROM reports GROUP BY status`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("report stats: %w", err)
	}
	defer rows.Close()

	stats := &store.ReportStats{ByStatus: make(map[string]int64)}
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("report stats: %w", err)
		}
		stats.ByStatus[status] = count
		stats.Total += count
	}
	return stats, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReport(row rowScanner) (*store.Report, error) {
	var report store.Report
	err := row.Scan(
		&report.ID, &report.Account, &report.Provider, &report.ReportType,
		&report.Format, &report.Status, &report.DownloadURL, &report.Error,
		&report.RequestedAt, &report.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func scanReportRows(rows *sql.Rows) ([]store.Report, error) {
	reports := make([]store.Report, 0)
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *report)
	}
	return reports, rows.Err()
}
