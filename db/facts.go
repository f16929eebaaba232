package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

var (
	// ErrOngoingFactExists is returned when saving an ongoing fact while
	// another is in progress.
	ErrOngoingFactExists = errors.New("there is already an ongoing fact")

	// ErrNoOngoingFact is returned when no fact is in progress.
	ErrNoOngoingFact = errors.New("no ongoing fact")

	// ErrFactTooShort is returned for a closed fact shorter than the minimum
	// fact length.
	ErrFactTooShort = errors.New("fact is shorter than the minimum fact length")

	// ErrFactEndBeforeStart is returned for a fact ending before it starts.
	ErrFactEndBeforeStart = errors.New("fact ends before it starts")
)

// Fact is a stored time tracking entry. End is nil for the ongoing fact.
type Fact struct {
	ID          int64
	Activity    string
	Category    *string
	Description string
	Tags        []string
	Start       time.Time
	End         *time.Time
}

// Duration returns the length of the fact, measured to now for an ongoing fact.
func (f Fact) Duration(now time.Time) time.Duration {
	if f.End == nil {
		return now.Sub(f.Start)
	}
	return f.End.Sub(f.Start)
}

// factRow is the concrete type of each row returned by the facts query.
type factRow struct {
	ID          int64          `db:"id"`
	Activity    string         `db:"activity"`
	Category    sql.NullString `db:"category"`
	Description string         `db:"description"`
	StartTime   string         `db:"start_time"`
	EndTime     sql.NullString `db:"end_time"`
	Tags        sql.NullString `db:"tags"`
}

// fact converts a row to a Fact.
func (db *DB) fact(r factRow) (Fact, error) {
	f := Fact{
		ID:          r.ID,
		Activity:    r.Activity,
		Description: r.Description,
	}
	if r.Category.Valid {
		c := r.Category.String
		f.Category = &c
	}
	if r.Tags.Valid && r.Tags.String != "" {
		f.Tags = strings.Split(r.Tags.String, ",")
	}
	start, err := db.parseTime(r.StartTime)
	if err != nil {
		return Fact{}, fmt.Errorf("fact %d start time: %w", r.ID, err)
	}
	f.Start = start
	if r.EndTime.Valid {
		end, err := db.parseTime(r.EndTime.String)
		if err != nil {
			return Fact{}, fmt.Errorf("fact %d end time: %w", r.ID, err)
		}
		f.End = &end
	}
	return f, nil
}

// checkSpan applies the store's rules to a closed fact.
func (db *DB) checkSpan(start, end time.Time) error {
	if end.Before(start) {
		return ErrFactEndBeforeStart
	}
	if d := end.Sub(start); d < db.factMinDelta {
		return fmt.Errorf("%w: %s < %s", ErrFactTooShort, d, db.factMinDelta)
	}
	return nil
}

// SaveFact stores f, creating its category, activity and tags as needed, and
// returns it with its new ID. Only one ongoing fact may exist at a time.
func (db *DB) SaveFact(ctx context.Context, f Fact) (Fact, error) {
	if f.End != nil {
		if err := db.checkSpan(f.Start, *f.End); err != nil {
			return Fact{}, err
		}
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return Fact{}, err
	}
	defer tx.Rollback() // no-op after commit.

	if f.End == nil {
		_, err := db.ongoingFact(ctx, tx)
		if err == nil {
			return Fact{}, ErrOngoingFactExists
		}
		if !errors.Is(err, ErrNoOngoingFact) {
			return Fact{}, err
		}
	}

	activityID, err := db.activityID(ctx, tx, f.Activity, f.Category)
	if err != nil {
		return Fact{}, fmt.Errorf("save fact activity error: %w", err)
	}

	var endTime any
	if f.End != nil {
		endTime = db.formatTime(*f.End)
	}
	args := map[string]any{
		"ActivityID":  activityID,
		"StartTime":   db.formatTime(f.Start),
		"EndTime":     endTime,
		"Description": f.Description,
	}
	result, err := db.exec(ctx, tx, db.factInsertStmt, args)
	if err != nil {
		return Fact{}, fmt.Errorf("save fact error: %w", err)
	}
	f.ID, err = result.LastInsertId()
	if err != nil {
		return Fact{}, fmt.Errorf("save fact id error: %w", err)
	}

	if err := db.linkTags(ctx, tx, f.ID, f.Tags); err != nil {
		return Fact{}, fmt.Errorf("save fact tags error: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Fact{}, err
	}
	db.logger.Info("fact saved", "id", f.ID, "activity", f.Activity, "ongoing", f.End == nil)
	return f, nil
}

// facts runs the facts query. Nil from or to leave the timeframe open on that
// side.
func (db *DB) facts(ctx context.Context, tx *sqlx.Tx, from, to *time.Time, term string, ongoingOnly bool) ([]Fact, error) {
	var dateFrom, dateTo any
	if from != nil {
		dateFrom = db.formatTime(*from)
	}
	if to != nil {
		dateTo = db.formatTime(*to)
	}
	onlyOngoing := 0
	if ongoingOnly {
		onlyOngoing = 1
	}
	args := map[string]any{
		"DateFrom":    dateFrom,
		"DateTo":      dateTo,
		"SearchTerm":  term,
		"OngoingOnly": onlyOngoing,
	}
	rows := []factRow{}
	if err := db.selectRows(ctx, tx, db.factsGetStmt, &rows, args); err != nil {
		return nil, fmt.Errorf("facts select error: %w", err)
	}
	facts := make([]Fact, 0, len(rows))
	for _, r := range rows {
		f, err := db.fact(r)
		if err != nil {
			return nil, err
		}
		facts = append(facts, f)
	}
	return facts, nil
}

// Facts returns the facts overlapping the timeframe from-to whose activity,
// category or description contains term, in start order. Nil from or to leave
// the timeframe open on that side and an empty term matches all facts.
func (db *DB) Facts(ctx context.Context, from, to *time.Time, term string) ([]Fact, error) {
	return db.facts(ctx, nil, from, to, term, false)
}

func (db *DB) ongoingFact(ctx context.Context, tx *sqlx.Tx) (Fact, error) {
	facts, err := db.facts(ctx, tx, nil, nil, "", true)
	if err != nil {
		return Fact{}, err
	}
	if len(facts) == 0 {
		return Fact{}, ErrNoOngoingFact
	}
	return facts[0], nil
}

// OngoingFact returns the fact in progress or ErrNoOngoingFact.
func (db *DB) OngoingFact(ctx context.Context) (Fact, error) {
	return db.ongoingFact(ctx, nil)
}

// StopOngoingFact closes the ongoing fact at end and returns it.
func (db *DB) StopOngoingFact(ctx context.Context, end time.Time) (Fact, error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return Fact{}, err
	}
	defer tx.Rollback() // no-op after commit.

	f, err := db.ongoingFact(ctx, tx)
	if err != nil {
		return Fact{}, err
	}
	if err := db.checkSpan(f.Start, end); err != nil {
		return Fact{}, err
	}
	args := map[string]any{
		"FactID":  f.ID,
		"EndTime": db.formatTime(end),
	}
	if _, err := db.exec(ctx, tx, db.factEndUpdateStmt, args); err != nil {
		return Fact{}, fmt.Errorf("stop fact error: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Fact{}, err
	}
	f.End = &end
	db.logger.Info("fact stopped", "id", f.ID, "activity", f.Activity)
	return f, nil
}

// CancelOngoingFact deletes the ongoing fact and returns it.
func (db *DB) CancelOngoingFact(ctx context.Context) (Fact, error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return Fact{}, err
	}
	defer tx.Rollback() // no-op after commit.

	f, err := db.ongoingFact(ctx, tx)
	if err != nil {
		return Fact{}, err
	}
	if _, err := db.exec(ctx, tx, db.factDeleteStmt, map[string]any{"FactID": f.ID}); err != nil {
		return Fact{}, fmt.Errorf("cancel fact error: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Fact{}, err
	}
	db.logger.Info("fact cancelled", "id", f.ID, "activity", f.Activity)
	return f, nil
}
