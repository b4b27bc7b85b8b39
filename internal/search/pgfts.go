package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PgFTS implements Searcher using PostgreSQL full-text search as a fallback.
type PgFTS struct {
	db *sql.DB
}

// NewPgFTS creates a PostgreSQL FTS searcher.
func NewPgFTS(db *sql.DB) *PgFTS {
	return &PgFTS{db: db}
}

// Healthy always returns true — if Postgres is down, the whole app is down.
func (p *PgFTS) Healthy() bool {
	return true
}

// Search queries entry_rows using plainto_tsquery and ts_rank, with
// ts_headline for snippets. Main rows are included so legacy single-valued
// payloads remain findable.
func (p *PgFTS) Search(q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	tsQuery := "plainto_tsquery('english', $1)"
	args := []any{q.Text}
	argN := 2

	where := "fts @@ " + tsQuery
	if q.FilterApplication != "" {
		where += fmt.Sprintf(" AND application_name = $%d", argN)
		args = append(args, q.FilterApplication)
		argN++
	}
	if q.FilterKind != "" {
		where += fmt.Sprintf(" AND row_kind = $%d", argN)
		args = append(args, q.FilterKind)
		argN++
	}

	countSQL := "SELECT count(*) FROM entry_rows WHERE " + where

	dataSQL := fmt.Sprintf(`
		SELECT id, row_kind, entry_date, application_name,
			CASE row_kind
				WHEN 'problemRecord' THEN problem_number
				WHEN 'incidentRecord' THEN incident_number
				ELSE issue_description
			END AS title,
			ts_headline('english',
				coalesce(issue_description, '') || ' ' || coalesce(remarks, ''),
				%s, 'MaxFragments=1,MaxWords=30') AS snippet,
			CASE row_kind
				WHEN 'problemRecord' THEN problem_status
				WHEN 'incidentRecord' THEN incident_status
				ELSE ''
			END AS status
		FROM entry_rows
		WHERE %s
		ORDER BY ts_rank(fts, %s) DESC
		LIMIT %d OFFSET %d`,
		tsQuery, where, tsQuery, limit, offset)

	ctx := context.Background()

	var total int
	if err := p.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgfts count: %w", err)
	}

	rows, err := p.db.QueryContext(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgfts query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.RowID, &r.Kind, &r.Date, &r.ApplicationName, &r.Title, &r.Snippet, &r.Status); err != nil {
			return nil, 0, fmt.Errorf("pgfts scan: %w", err)
		}
		if strings.TrimSpace(r.Title) == "" {
			r.Title = r.Snippet
		}
		results = append(results, r)
	}

	return results, total, rows.Err()
}

// LoadAllRecords returns all searchable rows for full reindexing.
func (p *PgFTS) LoadAllRecords(ctx context.Context) ([]RowRecord, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, row_kind, entry_date, application_name,
			issue_description || ' ' || remarks,
			CASE row_kind
				WHEN 'problemRecord' THEN problem_number
				WHEN 'incidentRecord' THEN incident_number
				ELSE ''
			END,
			CASE row_kind
				WHEN 'problemRecord' THEN problem_status
				WHEN 'incidentRecord' THEN incident_status
				ELSE ''
			END
		FROM entry_rows
	`)
	if err != nil {
		return nil, fmt.Errorf("load rows: %w", err)
	}
	defer rows.Close()

	records := make([]RowRecord, 0)
	for rows.Next() {
		var r RowRecord
		if err := rows.Scan(&r.ID, &r.Kind, &r.Date, &r.ApplicationName, &r.Text, &r.Number, &r.Status); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return records, nil
}
