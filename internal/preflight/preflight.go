package preflight

import (
	"fmt"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/voicescript/sqlshift/internal/migration"
	"github.com/voicescript/sqlshift/internal/sqlsplit"
)

// Option configures a Checker.
type Option func(*Checker)

// Checker validates migration scripts before anything executes: each script
// must split cleanly and every statement must parse as PostgreSQL.
type Checker struct {
	splitter *sqlsplit.Splitter
	parseFn  func(string) error
}

// New creates a Checker with the given options.
func New(opts ...Option) *Checker {
	c := &Checker{
		splitter: sqlsplit.New(sqlsplit.Postgres),
		parseFn:  parseStatement,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithDialect sets the dialect used to split scripts.
func WithDialect(d sqlsplit.Dialect) Option {
	return func(c *Checker) { c.splitter = sqlsplit.New(d) }
}

// WithParser overrides the statement parser function (useful for testing).
func WithParser(fn func(string) error) Option {
	return func(c *Checker) { c.parseFn = fn }
}

// Check splits one script and parses each statement, reporting the first
// problem found.
func (c *Checker) Check(f *migration.MigrationFile) error {
	stmts, err := c.splitter.Split(f.Content)
	if err != nil {
		return fmt.Errorf("splitting %s: %w", f.Filename, err)
	}

	for i, stmt := range stmts {
		if err := c.parseFn(stmt); err != nil {
			return fmt.Errorf("%s statement %d: %w", f.Filename, i+1, err)
		}
	}

	return nil
}

// Issue pairs a migration file with the problem found in it.
type Issue struct {
	File *migration.MigrationFile
	Err  error
}

// CheckAll checks every file and collects one issue per failing file.
func (c *Checker) CheckAll(files []migration.MigrationFile) []Issue {
	var issues []Issue

	for i := range files {
		if err := c.Check(&files[i]); err != nil {
			issues = append(issues, Issue{File: &files[i], Err: err})
		}
	}

	return issues
}

// parseStatement runs one statement through the PostgreSQL parser.
func parseStatement(stmt string) error {
	if _, err := pg_query.Parse(stmt); err != nil {
		return fmt.Errorf("parsing SQL: %w", err)
	}

	return nil
}
