package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// PostgresStore persists sub-record rows as independent rows. No query in
// this file touches more than the rows it is asked about; deleting or
// updating one row never cascades to a sibling.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

const rowColumns = `
	id, entry_date, application_name, row_kind, row_position,
	issue_description, time_loss,
	problem_number, problem_status, problem_link,
	incident_number, incident_status, incident_link,
	day_name, prc_mail_text, prc_mail_status, cp_alerts_text, cp_alerts_status,
	quality_status, remarks, created_at, updated_at`

func scanRow(scanner interface{ Scan(...any) error }) (Row, error) {
	var row Row
	err := scanner.Scan(
		&row.ID,
		&row.GroupingKey.Date,
		&row.GroupingKey.ApplicationName,
		&row.RowKind,
		&row.RowPosition,
		&row.IssueDescription,
		&row.TimeLoss,
		&row.ProblemNumber,
		&row.ProblemStatus,
		&row.ProblemLink,
		&row.IncidentNumber,
		&row.IncidentStatus,
		&row.IncidentLink,
		&row.Day,
		&row.PRCMailText,
		&row.PRCMailStatus,
		&row.CPAlertsText,
		&row.CPAlertsStatus,
		&row.QualityStatus,
		&row.Remarks,
		&row.CreatedAt,
		&row.UpdatedAt,
	)
	return row, err
}

func (s *PostgresStore) CreateRow(ctx context.Context, row Row) (Row, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO entry_rows (
			id, entry_date, application_name, row_kind, row_position,
			issue_description, time_loss,
			problem_number, problem_status, problem_link,
			incident_number, incident_status, incident_link,
			day_name, prc_mail_text, prc_mail_status, cp_alerts_text, cp_alerts_status,
			quality_status, remarks
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		RETURNING created_at, updated_at
	`,
		row.ID, row.GroupingKey.Date, row.GroupingKey.ApplicationName, row.RowKind, row.RowPosition,
		row.IssueDescription, row.TimeLoss,
		row.ProblemNumber, row.ProblemStatus, row.ProblemLink,
		row.IncidentNumber, row.IncidentStatus, row.IncidentLink,
		row.Day, row.PRCMailText, row.PRCMailStatus, row.CPAlertsText, row.CPAlertsStatus,
		row.QualityStatus, row.Remarks,
	).Scan(&row.CreatedAt, &row.UpdatedAt)
	if err != nil {
		return Row{}, fmt.Errorf("insert row: %w", err)
	}
	return row, nil
}

func (s *PostgresStore) GetRow(ctx context.Context, rowID string) (Row, error) {
	row, err := scanRow(s.db.QueryRowContext(ctx,
		`SELECT `+rowColumns+` FROM entry_rows WHERE id=$1`, rowID))
	if errors.Is(err, sql.ErrNoRows) {
		return Row{}, &NotFoundError{ID: rowID}
	}
	if err != nil {
		return Row{}, fmt.Errorf("get row: %w", err)
	}
	return row, nil
}

// UpdateRow mutates only the targeted row. Sibling rows sharing the grouping
// key or position are never touched.
func (s *PostgresStore) UpdateRow(ctx context.Context, rowID string, patch RowPatch) (Row, error) {
	assignments := []string{"updated_at=NOW()"}
	args := []any{rowID}
	add := func(column string, value any) {
		args = append(args, value)
		assignments = append(assignments, fmt.Sprintf("%s=$%d", column, len(args)))
	}

	if patch.RowPosition != nil {
		add("row_position", *patch.RowPosition)
	}
	if patch.IssueDescription != nil {
		add("issue_description", *patch.IssueDescription)
	}
	if patch.TimeLoss != nil {
		add("time_loss", *patch.TimeLoss)
	}
	if patch.ProblemNumber != nil {
		add("problem_number", *patch.ProblemNumber)
	}
	if patch.ProblemStatus != nil {
		add("problem_status", *patch.ProblemStatus)
	}
	if patch.ProblemLink != nil {
		add("problem_link", *patch.ProblemLink)
	}
	if patch.IncidentNumber != nil {
		add("incident_number", *patch.IncidentNumber)
	}
	if patch.IncidentStatus != nil {
		add("incident_status", *patch.IncidentStatus)
	}
	if patch.IncidentLink != nil {
		add("incident_link", *patch.IncidentLink)
	}
	if patch.Day != nil {
		add("day_name", *patch.Day)
	}
	if patch.PRCMailText != nil {
		add("prc_mail_text", *patch.PRCMailText)
	}
	if patch.PRCMailStatus != nil {
		add("prc_mail_status", *patch.PRCMailStatus)
	}
	if patch.CPAlertsText != nil {
		add("cp_alerts_text", *patch.CPAlertsText)
	}
	if patch.CPAlertsStatus != nil {
		add("cp_alerts_status", *patch.CPAlertsStatus)
	}
	if patch.QualityStatus != nil {
		add("quality_status", *patch.QualityStatus)
	}
	if patch.Remarks != nil {
		add("remarks", *patch.Remarks)
	}

	query := `UPDATE entry_rows SET ` + strings.Join(assignments, ", ") + ` WHERE id=$1 RETURNING ` + rowColumns
	row, err := scanRow(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return Row{}, &NotFoundError{ID: rowID}
	}
	if err != nil {
		return Row{}, fmt.Errorf("update row: %w", err)
	}
	return row, nil
}

// DeleteRow removes only the targeted row; there is nothing to cascade to.
func (s *PostgresStore) DeleteRow(ctx context.Context, rowID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM entry_rows WHERE id=$1`, rowID)
	if err != nil {
		return fmt.Errorf("delete row: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete row affected: %w", err)
	}
	if affected == 0 {
		return &NotFoundError{ID: rowID}
	}
	return nil
}

// ListRows returns every row for one grouping key in deterministic order:
// position ascending, ties broken by kind then id.
func (s *PostgresStore) ListRows(ctx context.Context, key GroupingKey) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+rowColumns+`
		FROM entry_rows
		WHERE entry_date=$1 AND application_name=$2
		ORDER BY row_position ASC, row_kind ASC, id ASC
	`, key.Date, key.ApplicationName)
	if err != nil {
		return nil, fmt.Errorf("list rows: %w", err)
	}
	defer rows.Close()

	items := make([]Row, 0)
	for rows.Next() {
		item, err := scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return items, nil
}

// GetMainRow fetches the main row for a grouping key, if any.
func (s *PostgresStore) GetMainRow(ctx context.Context, key GroupingKey) (*Row, error) {
	row, err := scanRow(s.db.QueryRowContext(ctx, `
		SELECT `+rowColumns+`
		FROM entry_rows
		WHERE entry_date=$1 AND application_name=$2 AND row_kind='main'
		ORDER BY id ASC
		LIMIT 1
	`, key.Date, key.ApplicationName))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get main row: %w", err)
	}
	return &row, nil
}

// ListApplicationRows returns every row for an application within an optional
// date range, newest date first, grouped and position-ordered within a date.
func (s *PostgresStore) ListApplicationRows(ctx context.Context, applicationName, startDate, endDate string) ([]Row, error) {
	query := `SELECT ` + rowColumns + ` FROM entry_rows WHERE application_name=$1`
	args := []any{applicationName}
	if startDate != "" {
		args = append(args, startDate)
		query += fmt.Sprintf(" AND entry_date >= $%d", len(args))
	}
	if endDate != "" {
		args = append(args, endDate)
		query += fmt.Sprintf(" AND entry_date <= $%d", len(args))
	}
	query += ` ORDER BY entry_date DESC, row_position ASC, row_kind ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list application rows: %w", err)
	}
	defer rows.Close()

	items := make([]Row, 0)
	for rows.Next() {
		item, err := scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan application row: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate application rows: %w", err)
	}
	return items, nil
}

// timeLossSentinels are values that look like time loss but mean "none".
const timeLossSentinels = `('N/A', 'NA', 'NONE', 'NULL')`

// ListKindRows returns individual sub-record rows for row-level filtering.
// The timeLoss filter prefers issue rows over main-row legacy time loss so
// the same entry is not reported twice.
func (s *PostgresStore) ListKindRows(ctx context.Context, applicationName string, filter KindFilter, startDate, endDate string) ([]Row, error) {
	query := `SELECT ` + rowColumns + ` FROM entry_rows WHERE application_name=$1`
	args := []any{applicationName}
	if startDate != "" {
		args = append(args, startDate)
		query += fmt.Sprintf(" AND entry_date >= $%d", len(args))
	}
	if endDate != "" {
		args = append(args, endDate)
		query += fmt.Sprintf(" AND entry_date <= $%d", len(args))
	}

	switch filter {
	case FilterIssue:
		query += ` AND (row_kind='issue' OR (row_kind='main' AND issue_description <> ''))`
	case FilterProblem:
		query += ` AND (row_kind='problemRecord' OR (row_kind='main' AND problem_number <> ''))`
	case FilterIncident:
		query += ` AND (row_kind='incidentRecord' OR (row_kind='main' AND incident_number <> ''))`
	case FilterTimeLoss:
		query += ` AND (
			(
				row_kind='issue'
				AND TRIM(time_loss) <> ''
				AND TRIM(UPPER(time_loss)) NOT IN ` + timeLossSentinels + `
			)
			OR
			(
				row_kind='main'
				AND TRIM(time_loss) <> ''
				AND TRIM(UPPER(time_loss)) NOT IN ` + timeLossSentinels + `
				AND NOT EXISTS (
					SELECT 1 FROM entry_rows sibling
					WHERE sibling.entry_date = entry_rows.entry_date
					  AND sibling.application_name = entry_rows.application_name
					  AND sibling.row_kind = 'issue'
					  AND TRIM(sibling.time_loss) <> ''
					  AND TRIM(UPPER(sibling.time_loss)) NOT IN ` + timeLossSentinels + `
				)
			)
		)`
	case FilterNone:
		query += ` AND row_kind <> 'main'`
	}
	query += ` ORDER BY entry_date DESC, row_position ASC, row_kind ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list kind rows: %w", err)
	}
	defer rows.Close()

	items := make([]Row, 0)
	for rows.Next() {
		item, err := scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan kind row: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate kind rows: %w", err)
	}
	return items, nil
}

// DeleteGroup removes every row belonging to one grouping key and reports how
// many rows went. Used when the user deletes a whole date entry; per-row
// deletes go through DeleteRow.
func (s *PostgresStore) DeleteGroup(ctx context.Context, key GroupingKey) (int, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM entry_rows WHERE entry_date=$1 AND application_name=$2
	`, key.Date, key.ApplicationName)
	if err != nil {
		return 0, fmt.Errorf("delete group: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete group affected: %w", err)
	}
	return int(affected), nil
}

func (s *PostgresStore) Summary(ctx context.Context, applicationName string) (SummaryCounts, error) {
	var counts SummaryCounts
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT entry_date) FROM entry_rows WHERE application_name=$1 AND row_kind='main'
	`, applicationName).Scan(&counts.Entries)
	if err != nil {
		return SummaryCounts{}, fmt.Errorf("count entries: %w", err)
	}
	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM entry_rows
		WHERE application_name=$1 AND problem_number <> '' AND LOWER(problem_status)='active'
	`, applicationName).Scan(&counts.OpenProblems)
	if err != nil {
		return SummaryCounts{}, fmt.Errorf("count open problem records: %w", err)
	}
	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM entry_rows
		WHERE application_name=$1 AND incident_number <> '' AND LOWER(incident_status)='active'
	`, applicationName).Scan(&counts.OpenIncidents)
	if err != nil {
		return SummaryCounts{}, fmt.Errorf("count open incident records: %w", err)
	}
	return counts, nil
}

// Ping verifies the database connection is alive
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
