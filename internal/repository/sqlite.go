package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/himtika/proposal-tracker/internal/entity"
)

// Timestamps are stored as fixed-width UTC text so that lexical order matches
// chronological order.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// nowUTC is replaced in tests that need deterministic timestamps.
var nowUTC = func() time.Time { return time.Now().UTC() }

func formatTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func parseTime(value string) (time.Time, error) {
	t, err := time.Parse(sqliteTimeLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", value, err)
	}
	return t.UTC(), nil
}

func isSQLiteConstraint(err error, codes ...int) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	for _, code := range codes {
		if sqliteErr.Code() == code {
			return true
		}
	}
	return false
}

func isSQLiteUnique(err error) bool {
	if isSQLiteConstraint(err, sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY) {
		return true
	}
	// without extended result codes only the primary code is reported
	return isSQLiteConstraint(err, sqlite3.SQLITE_CONSTRAINT) && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

type sqliteChannelColumns struct {
	sent        bool
	dateSent    sql.NullString
	sentBy      sql.NullString
	sentByName  sql.NullString
	sentByPhone sql.NullString
}

func (cc sqliteChannelColumns) status() (entity.ChannelStatus, error) {
	if !cc.sent {
		return entity.ChannelStatus{}, nil
	}
	status := entity.ChannelStatus{Sent: true}
	if cc.dateSent.Valid {
		ts, err := parseTime(cc.dateSent.String)
		if err != nil {
			return entity.ChannelStatus{}, err
		}
		status.DateSent = &ts
	}
	ref := entity.ActorRef{Name: cc.sentByName.String, Phone: cc.sentByPhone.String}
	if cc.sentBy.Valid && cc.sentBy.String != "" {
		id, err := uuid.Parse(cc.sentBy.String)
		if err != nil {
			return entity.ChannelStatus{}, fmt.Errorf("parse sent_by: %w", err)
		}
		ref.ID = id
	}
	status.SentBy = &ref
	return status, nil
}

// sqliteChannelArgs mirrors channelArgs with text encoded ids and timestamps.
func sqliteChannelArgs(s entity.ChannelStatus) []any {
	if !s.Sent {
		return []any{false, nil, nil, nil, nil}
	}
	var (
		dateSent any
		sentBy   any
		name     any
		phone    any
	)
	if s.DateSent != nil {
		dateSent = formatTime(*s.DateSent)
	}
	if s.SentBy != nil {
		sentBy = s.SentBy.ID.String()
		name = s.SentBy.Name
		phone = s.SentBy.Phone
	}
	return []any{true, dateSent, sentBy, name, phone}
}
