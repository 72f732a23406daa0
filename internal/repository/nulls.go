package repository

import (
    "database/sql"
    "time"
)

func nullStr(p *string) sql.NullString {
    if p == nil {
        return sql.NullString{}
    }
    return sql.NullString{String: *p, Valid: true}
}

func nullU64(p *uint64) sql.NullInt64 {
    if p == nil {
        return sql.NullInt64{}
    }
    return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func nullTime(p *time.Time) sql.NullTime {
    if p == nil {
        return sql.NullTime{}
    }
    return sql.NullTime{Time: p.UTC(), Valid: true}
}

func strPtr(n sql.NullString) *string {
    if !n.Valid {
        return nil
    }
    s := n.String
    return &s
}

func u64Ptr(n sql.NullInt64) *uint64 {
    if !n.Valid {
        return nil
    }
    v := uint64(n.Int64)
    return &v
}

func timePtr(n sql.NullTime) *time.Time {
    if !n.Valid {
        return nil
    }
    t := n.Time.UTC()
    return &t
}
