package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// normalizeValue turns pgx row values into JSON-friendly Go values.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case pgtype.Numeric:
		if !val.Valid {
			return nil
		}
		f, err := val.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	case pgtype.Date:
		if !val.Valid {
			return nil
		}
		return val.Time.Format("2006-01-02")
	case pgtype.UUID:
		if !val.Valid {
			return nil
		}
		return uuid.UUID(val.Bytes).String()
	case [16]byte:
		return uuid.UUID(val).String()
	case time.Time:
		return val.Format(time.RFC3339)
	default:
		return val
	}
}
