package postgres

import (
	"github.com/Masterminds/squirrel"

	"github.com/heartmarshall/notes-assistant-backend/internal/domain"
)

// Builder returns a squirrel statement builder using $N placeholders.
func Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// DateRangeAny matches rows where at least one of columns falls inside r.
// Returns nil for an empty range.
func DateRangeAny(r *domain.DateRange, columns ...string) squirrel.Sqlizer {
	if r.IsEmpty() || len(columns) == 0 {
		return nil
	}

	or := make(squirrel.Or, 0, len(columns))
	for _, col := range columns {
		and := squirrel.And{}
		if r.From != nil {
			and = append(and, squirrel.GtOrEq{col: *r.From})
		}
		if r.To != nil {
			and = append(and, squirrel.LtOrEq{col: *r.To})
		}
		or = append(or, and)
	}
	return or
}
