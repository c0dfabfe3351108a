package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
)

// Builder returns a squirrel statement builder using $N placeholders.
func Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Select runs query and scans every row into dst (a pointer to a slice).
func Select(ctx context.Context, q Querier, dst any, query squirrel.Sqlizer) error {
	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	return pgxscan.Select(ctx, q, dst, sql, args...)
}

// Get runs query and scans exactly one row into dst. No rows yields pgx.ErrNoRows.
func Get(ctx context.Context, q Querier, dst any, query squirrel.Sqlizer) error {
	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	return pgxscan.Get(ctx, q, dst, sql, args...)
}

// Exec runs query and returns the number of affected rows.
func Exec(ctx context.Context, q Querier, query squirrel.Sqlizer) (int64, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}
	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
