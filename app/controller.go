package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gffbss/hamster-cli/db"
	"github.com/gffbss/hamster-cli/rawfact"
)

// FactSaver saves a new fact.
type FactSaver interface {
	SaveFact(ctx context.Context, f db.Fact) (db.Fact, error)
}

// FactLister lists facts overlapping a timeframe and matching a search term.
type FactLister interface {
	Facts(ctx context.Context, from, to *time.Time, term string) ([]db.Fact, error)
}

// OngoingFacts manages the fact in progress.
type OngoingFacts interface {
	OngoingFact(ctx context.Context) (db.Fact, error)
	StopOngoingFact(ctx context.Context, end time.Time) (db.Fact, error)
	CancelOngoingFact(ctx context.Context) (db.Fact, error)
}

// ActivityLister lists activities matching a search term.
type ActivityLister interface {
	Activities(ctx context.Context, term string) ([]db.Activity, error)
}

// CategoryLister lists categories matching a search term.
type CategoryLister interface {
	Categories(ctx context.Context, term string) ([]db.Category, error)
}

// ErrNothingTracked is returned by the commands acting on the ongoing fact when
// there is none.
var ErrNothingTracked = errors.New("nothing is being tracked right now")

// startFact builds a fact from raw and the explicit start and end and saves it.
func startFact(ctx context.Context, saver FactSaver, raw, start, end string, now time.Time) (db.Fact, error) {
	draft, err := rawfact.NewDraft(raw, start, end, now)
	if err != nil {
		return db.Fact{}, err
	}
	fact, err := saver.SaveFact(ctx, db.Fact{
		Activity:    draft.Activity,
		Category:    draft.Category,
		Description: draft.Description,
		Tags:        draft.Tags,
		Start:       draft.Start,
		End:         draft.End,
	})
	if err != nil {
		return db.Fact{}, fmt.Errorf("could not save fact: %w", err)
	}
	return fact, nil
}

// ongoing maps the store's missing ongoing fact error to ErrNothingTracked.
func ongoing(f db.Fact, err error) (db.Fact, error) {
	if errors.Is(err, db.ErrNoOngoingFact) {
		return db.Fact{}, ErrNothingTracked
	}
	return f, err
}

func stopFact(ctx context.Context, o OngoingFacts, now time.Time) (db.Fact, error) {
	return ongoing(o.StopOngoingFact(ctx, now))
}

func cancelFact(ctx context.Context, o OngoingFacts) (db.Fact, error) {
	return ongoing(o.CancelOngoingFact(ctx))
}

func currentFact(ctx context.Context, o OngoingFacts) (db.Fact, error) {
	return ongoing(o.OngoingFact(ctx))
}

// searchFacts lists the facts matching term within timeRange, an empty
// timeRange being unbounded.
func searchFacts(ctx context.Context, lister FactLister, term, timeRange string, dayStart time.Duration, now time.Time) ([]db.Fact, error) {
	tf, err := rawfact.ParseTimeframe(timeRange, dayStart, now)
	if err != nil {
		return nil, err
	}
	return lister.Facts(ctx, tf.Start, tf.End, term)
}

// listFacts lists the facts within timeRange, by default the current day.
func listFacts(ctx context.Context, lister FactLister, timeRange string, dayStart time.Duration, now time.Time) ([]db.Fact, rawfact.Timeframe, error) {
	tf := rawfact.DayOf(now, dayStart)
	if timeRange != "" {
		var err error
		tf, err = rawfact.ParseTimeframe(timeRange, dayStart, now)
		if err != nil {
			return nil, tf, err
		}
	}
	facts, err := lister.Facts(ctx, tf.Start, tf.End, "")
	return facts, tf, err
}

func listActivities(ctx context.Context, lister ActivityLister, term string) ([]db.Activity, error) {
	activities, err := lister.Activities(ctx, term)
	if err != nil {
		return nil, fmt.Errorf("could not list activities: %w", err)
	}
	return activities, nil
}

func listCategories(ctx context.Context, lister CategoryLister, term string) ([]db.Category, error) {
	categories, err := lister.Categories(ctx, term)
	if err != nil {
		return nil, fmt.Errorf("could not list categories: %w", err)
	}
	return categories, nil
}
