package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Category is the concrete type of each row returned by Categories.
type Category struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

// Activity is the concrete type of each row returned by Activities. Category is
// nil for an activity without a category.
type Activity struct {
	ID           int64          `db:"id"`
	Name         string         `db:"name"`
	CategoryID   sql.NullInt64  `db:"category_id"`
	CategoryName sql.NullString `db:"category_name"`
}

// Category returns the activity's category name, or nil.
func (a Activity) Category() *string {
	if !a.CategoryName.Valid {
		return nil
	}
	s := a.CategoryName.String
	return &s
}

// Categories returns the categories whose name contains term, ignoring case. An
// empty term returns all categories.
func (db *DB) Categories(ctx context.Context, term string) ([]Category, error) {
	categories := []Category{}
	args := map[string]any{
		"SearchTerm": term,
	}
	if err := db.selectRows(ctx, nil, db.categoriesGetStmt, &categories, args); err != nil {
		return nil, fmt.Errorf("categories select error: %w", err)
	}
	return categories, nil
}

// Activities returns the activities whose name contains term, ignoring case. An
// empty term returns all activities.
func (db *DB) Activities(ctx context.Context, term string) ([]Activity, error) {
	activities := []Activity{}
	args := map[string]any{
		"SearchTerm": term,
	}
	if err := db.selectRows(ctx, nil, db.activitiesGetStmt, &activities, args); err != nil {
		return nil, fmt.Errorf("activities select error: %w", err)
	}
	return activities, nil
}

// categoryID returns the id of the category called name, creating it if needed.
func (db *DB) categoryID(ctx context.Context, tx *sqlx.Tx, name string) (int64, error) {
	args := map[string]any{
		"Name": name,
	}
	if _, err := db.exec(ctx, tx, db.categoryInsertStmt, args); err != nil {
		return 0, err
	}
	var c Category
	if err := db.getRow(ctx, tx, db.categoryGetStmt, &c, args); err != nil {
		return 0, fmt.Errorf("category %q lookup error: %w", name, err)
	}
	return c.ID, nil
}

// activityID returns the id of the activity called name in category, creating
// the category and activity if needed. A nil category is no category.
func (db *DB) activityID(ctx context.Context, tx *sqlx.Tx, name string, category *string) (int64, error) {
	var categoryID any
	if category != nil {
		id, err := db.categoryID(ctx, tx, *category)
		if err != nil {
			return 0, err
		}
		categoryID = id
	}
	args := map[string]any{
		"Name":       name,
		"CategoryID": categoryID,
	}
	if _, err := db.exec(ctx, tx, db.activityInsertStmt, args); err != nil {
		return 0, err
	}
	var a Activity
	err := db.getRow(ctx, tx, db.activityGetStmt, &a, args)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("activity %q was not stored", name)
	}
	if err != nil {
		return 0, fmt.Errorf("activity %q lookup error: %w", name, err)
	}
	return a.ID, nil
}

// linkTags creates the named tags if needed and links them to the fact.
func (db *DB) linkTags(ctx context.Context, tx *sqlx.Tx, factID int64, tags []string) error {
	for _, tag := range tags {
		if _, err := db.exec(ctx, tx, db.tagInsertStmt, map[string]any{"Name": tag}); err != nil {
			return err
		}
		args := map[string]any{
			"FactID":  factID,
			"TagName": tag,
		}
		if _, err := db.exec(ctx, tx, db.tagLinkStmt, args); err != nil {
			return err
		}
	}
	return nil
}
