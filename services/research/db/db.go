// Package db is the handwritten query layer for report history.
package db

import (
	"context"
	"database/sql"

	_ "embed"
)

//go:embed schema.sql
var Schema string

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type Report struct {
	Slug      string
	Kind      string
	Keyword   string
	Payload   string
	Createdat int64
}

type CreateReportParams struct {
	Slug      string
	Kind      string
	Keyword   string
	Payload   string
	Createdat int64
}

func (q *Queries) CreateReport(ctx context.Context, arg CreateReportParams) error {
	_, err := q.db.ExecContext(ctx, `
INSERT INTO reports (slug, kind, keyword, payload, createdat)
VALUES (?, ?, ?, ?, ?)
	`, arg.Slug, arg.Kind, arg.Keyword, arg.Payload, arg.Createdat)
	return err
}

func (q *Queries) GetReport(ctx context.Context, slug string) (Report, error) {
	row := q.db.QueryRowContext(ctx, `
SELECT slug, kind, keyword, payload, createdat FROM reports
WHERE slug = ?
	`, slug)

	var out Report
	err := row.Scan(&out.Slug, &out.Kind, &out.Keyword, &out.Payload, &out.Createdat)
	return out, err
}

func (q *Queries) ListReports(ctx context.Context, limit int64) ([]Report, error) {
	rows, err := q.db.QueryContext(ctx, `
SELECT slug, kind, keyword, payload, createdat FROM reports
ORDER BY createdat DESC
LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Report
	for rows.Next() {
		var report Report
		err := rows.Scan(&report.Slug, &report.Kind, &report.Keyword, &report.Payload, &report.Createdat)
		if err != nil {
			return nil, err
		}
		out = append(out, report)
	}
	return out, rows.Err()
}
