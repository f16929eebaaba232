// Package db provides the fact store behind the hamster command line client.
//
// The store is an sqlite database. Each query is held in an sql file in the `sql`
// directory which can also be run on the sqlite command line; the queries declare
// their inputs as literal values marked with `/* @param */` in a leading `variables`
// CTE, which parameterize.go turns into sqlx named parameters. The sql files are
// embedded, but may be replaced by a directory on disk for development.
package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx" // helper library
	_ "modernc.org/sqlite"    // pure go sqlite driver
)

// SQLEmbeddedFS holds the schema and query files.
//
//go:embed sql
var SQLEmbeddedFS embed.FS

// timeLayout is the storage format of fact start and end times. Times are stored
// as wall clock times in the store's location so that they sort as text.
const timeLayout = "2006-01-02 15:04:05"

// schemaFile is the idempotent schema definition in the sql fs.
const schemaFile = "schema.sql"

// parameterizedStmt describes an sql file parsed into an sqlx NamedStmt expecting the
// provided args.
type parameterizedStmt struct {
	sqlFile string
	args    []string
	*sqlx.NamedStmt
}

// verifyArgs checks that the named arguments match those declared in the sql file.
func (p *parameterizedStmt) verifyArgs(args map[string]any) error {
	if got, want := len(args), len(p.args); got != want {
		return fmt.Errorf(
			"argument length to named statement from %q incorrect: got %d want %d",
			p.sqlFile,
			got,
			want,
		)
	}
	for _, a := range p.args {
		if _, ok := args[a]; !ok {
			return fmt.Errorf("named statement from %q missing argument %q", p.sqlFile, a)
		}
	}
	return nil
}

// DB provides a wrapper around the sqlx connection for fact store operations.
type DB struct {
	*sqlx.DB
	sqlFS        fs.FS
	logger       *slog.Logger
	location     *time.Location
	factMinDelta time.Duration

	// Prepared statements.
	categoryInsertStmt *parameterizedStmt
	categoryGetStmt    *parameterizedStmt
	categoriesGetStmt  *parameterizedStmt

	activityInsertStmt *parameterizedStmt
	activityGetStmt    *parameterizedStmt
	activitiesGetStmt  *parameterizedStmt

	tagInsertStmt *parameterizedStmt
	tagLinkStmt   *parameterizedStmt

	factInsertStmt    *parameterizedStmt
	factsGetStmt      *parameterizedStmt
	factEndUpdateStmt *parameterizedStmt
	factDeleteStmt    *parameterizedStmt
}

// NewConnection opens the sqlite database at dbPath, initialises its schema and
// prepares the statements found in sqlFS. A nil logger discards log output.
func NewConnection(dbPath string, sqlFS fs.FS, logger *slog.Logger) (*DB, error) {

	// dataSource is the default setting for file-based databases.
	dataSource := fmt.Sprintf(
		"%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)",
		dbPath,
	)

	// for in-memory test databases, check the necessary cached setting is used.
	if strings.Contains(dbPath, ":memory:") {
		if !strings.Contains(dbPath, "cache=shared") {
			return nil, fmt.Errorf("in-memory connection %q should contain '?cache=shared'", dbPath)
		}
		dataSource = dbPath
	}
	dbDB, err := sql.Open("sqlite", dataSource)
	if err != nil {
		return nil, err
	}

	// RegisterFunctions registers the custom ICONTAINS function. This can occur per
	// call as it is a singleton using sync.Once.
	RegisterFunctions()

	if err := dbDB.Ping(); err != nil {
		_ = dbDB.Close()
		return nil, err
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	db := &DB{
		DB:       sqlx.NewDb(dbDB, "sqlite"),
		sqlFS:    sqlFS,
		logger:   logger,
		location: time.Local,
	}

	if err := db.InitSchema(sqlFS, schemaFile); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := db.prepareNamedStatements(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("could not prepare named statements: %w", err)
	}
	return db, nil
}

// SetFactMinDelta sets the minimum length of a closed fact.
func (db *DB) SetFactMinDelta(d time.Duration) {
	db.factMinDelta = d
}

// prepareNamedStatements prepares all the named statements for this database connection.
func (db *DB) prepareNamedStatements() error {
	statements := []struct {
		stmt **parameterizedStmt
		file string
	}{
		{&db.categoryInsertStmt, "category_insert.sql"},
		{&db.categoryGetStmt, "category.sql"},
		{&db.categoriesGetStmt, "categories.sql"},
		{&db.activityInsertStmt, "activity_insert.sql"},
		{&db.activityGetStmt, "activity.sql"},
		{&db.activitiesGetStmt, "activities.sql"},
		{&db.tagInsertStmt, "tag_insert.sql"},
		{&db.tagLinkStmt, "tag_link.sql"},
		{&db.factInsertStmt, "fact_insert.sql"},
		{&db.factsGetStmt, "facts.sql"},
		{&db.factEndUpdateStmt, "fact_end_update.sql"},
		{&db.factDeleteStmt, "fact_delete.sql"},
	}
	for _, s := range statements {
		stmt, err := db.prepNamedStatement(db.sqlFS, s.file)
		if err != nil {
			return err
		}
		*s.stmt = stmt
	}
	return nil
}

// prepNamedStatement parameterizes and prepares the query in filePath.
func (db *DB) prepNamedStatement(fileFS fs.FS, filePath string) (*parameterizedStmt, error) {
	query, err := ParameterizeFile(fileFS, filePath)
	if err != nil {
		return nil, fmt.Errorf("could not parameterize %q: %w", filePath, err)
	}

	pQuery, err := db.PrepareNamed(string(query.Body))
	if err != nil {
		return nil, fmt.Errorf("could not prepare statement %q: %w", filePath, err)
	}
	return &parameterizedStmt{
		filePath,
		query.Parameters,
		pQuery,
	}, nil
}

// InitSchema creates the necessary tables if they don't already exist. The schema file
// can be run idempotently.
func (db *DB) InitSchema(fileFS fs.FS, filePath string) error {

	schema, err := fs.ReadFile(fileFS, filePath)
	if err != nil {
		return fmt.Errorf("could not read schema file at %q: %w", filePath, err)
	}

	_, err = db.ExecContext(context.Background(), string(schema))
	if err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// bind returns stmt bound to tx, or stmt itself when tx is nil.
func bind(ctx context.Context, tx *sqlx.Tx, stmt *parameterizedStmt) *sqlx.NamedStmt {
	if tx == nil {
		return stmt.NamedStmt
	}
	return tx.NamedStmtContext(ctx, stmt.NamedStmt)
}

// exec verifies args and executes stmt, within tx if it is not nil.
func (db *DB) exec(ctx context.Context, tx *sqlx.Tx, stmt *parameterizedStmt, args map[string]any) (sql.Result, error) {
	if err := stmt.verifyArgs(args); err != nil {
		return nil, err
	}
	result, err := bind(ctx, tx, stmt).ExecContext(ctx, args)
	db.logQuery(stmt, args, err)
	if err != nil {
		return nil, fmt.Errorf("%s error: %w", stmt.sqlFile, err)
	}
	return result, nil
}

// selectRows verifies args and scans the rows returned by stmt into dest.
func (db *DB) selectRows(ctx context.Context, tx *sqlx.Tx, stmt *parameterizedStmt, dest any, args map[string]any) error {
	if err := stmt.verifyArgs(args); err != nil {
		return err
	}
	err := bind(ctx, tx, stmt).SelectContext(ctx, dest, args)
	db.logQuery(stmt, args, err)
	if err != nil {
		return fmt.Errorf("%s error: %w", stmt.sqlFile, err)
	}
	return nil
}

// getRow verifies args and scans the single row returned by stmt into dest.
// sql.ErrNoRows is returned unwrapped.
func (db *DB) getRow(ctx context.Context, tx *sqlx.Tx, stmt *parameterizedStmt, dest any, args map[string]any) error {
	if err := stmt.verifyArgs(args); err != nil {
		return err
	}
	err := bind(ctx, tx, stmt).GetContext(ctx, dest, args)
	db.logQuery(stmt, args, err)
	if errors.Is(err, sql.ErrNoRows) {
		return sql.ErrNoRows
	}
	if err != nil {
		return fmt.Errorf("%s error: %w", stmt.sqlFile, err)
	}
	return nil
}

// logQuery is for helping debug SQL issues.
func (db *DB) logQuery(stmt *parameterizedStmt, args map[string]any, err error) {
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		db.logger.Warn("sql error", "file", stmt.sqlFile, "args", args, "error", err)
		return
	}
	db.logger.Debug("sql", "file", stmt.sqlFile, "args", args)
}

// formatTime renders t in the store's location and storage layout.
func (db *DB) formatTime(t time.Time) string {
	return t.In(db.location).Format(timeLayout)
}

// parseTime reads a stored time.
func (db *DB) parseTime(s string) (time.Time, error) {
	return time.ParseInLocation(timeLayout, s, db.location)
}
