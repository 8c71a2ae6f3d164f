package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// PageQuery describes a filtered listing. Conditions use named parameters
// bound from Args; OrderBy must never contain user input.
type PageQuery struct {
	Columns    string
	Table      string
	Conditions []string
	Args       map[string]interface{}
	OrderBy    string
	Page       int
	PageSize   int
}

// SelectPage loads one page into dest and returns the total row count.
func SelectPage(ctx context.Context, db sqlx.ExtContext, dest interface{}, q PageQuery) (int, error) {
	whereClause := ""
	if len(q.Conditions) > 0 {
		whereClause = " WHERE " + strings.Join(q.Conditions, " AND ")
	}
	args := q.Args
	if args == nil {
		args = map[string]interface{}{}
	}

	var count int
	countQuery, countArgs, err := sqlx.Named("SELECT count(*) FROM "+q.Table+whereClause, args)
	if err != nil {
		return 0, err
	}
	if err := sqlx.GetContext(ctx, db, &count, db.Rebind(countQuery), countArgs...); err != nil {
		return 0, fmt.Errorf("count %s: %w", q.Table, err)
	}

	query := fmt.Sprintf("SELECT %s FROM %s%s", q.Columns, q.Table, whereClause)
	if q.OrderBy != "" {
		query += " ORDER BY " + q.OrderBy
	}
	if q.PageSize > 0 {
		page := q.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", q.PageSize, (page-1)*q.PageSize)
	}

	listQuery, listArgs, err := sqlx.Named(query, args)
	if err != nil {
		return 0, err
	}
	if err := sqlx.SelectContext(ctx, db, dest, db.Rebind(listQuery), listArgs...); err != nil {
		return 0, fmt.Errorf("list %s: %w", q.Table, err)
	}
	return count, nil
}
