package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"net/url"
	"sort"
	"strings"

	chstore "pairs-lab/internal/storage/clickhouse"
	"pairs-lab/internal/storage/postgres"
)

// execer is the subset of a connection needed to apply one statement.
type execer func(ctx context.Context, stmt string) error

// RunPostgresMigrations applies all embedded Postgres files in lexical order.
// Each file is sent as one multi-statement Exec; files must be idempotent.
func RunPostgresMigrations(ctx context.Context, pool *postgres.Pool) error {
	return apply(ctx, PostgresFS, "postgres", false, func(ctx context.Context, stmt string) error {
		_, err := pool.Exec(ctx, stmt)
		return err
	})
}

// RunClickhouseMigrations ensures the database named in dsn exists, then
// applies all embedded ClickHouse files statement by statement.
// Returns a connection to the target database for reuse.
func RunClickhouseMigrations(ctx context.Context, dsn string) (*chstore.Conn, error) {
	dbName, err := databaseFromDSN(dsn)
	if err != nil {
		return nil, err
	}

	adminConn, err := chstore.NewConnWithDatabase(ctx, dsn, "")
	if err != nil {
		return nil, fmt.Errorf("connect clickhouse admin: %w", err)
	}
	if err := adminConn.Exec(ctx, fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", dbName)); err != nil {
		adminConn.Close()
		return nil, fmt.Errorf("create database %s: %w", dbName, err)
	}
	if err := adminConn.Close(); err != nil {
		return nil, fmt.Errorf("close admin connection: %w", err)
	}

	conn, err := chstore.NewConnWithDatabase(ctx, dsn, dbName)
	if err != nil {
		return nil, fmt.Errorf("connect clickhouse db: %w", err)
	}

	// The native driver rejects multi-statement Exec.
	err = apply(ctx, ClickhouseFS, "clickhouse", true, func(ctx context.Context, stmt string) error {
		return conn.Exec(ctx, stmt)
	})
	if err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// apply runs every .sql file under dir in lexical order.
func apply(ctx context.Context, fsys fs.FS, dir string, split bool, exec execer) error {
	files, err := sqlFiles(fsys, dir)
	if err != nil {
		return err
	}

	for _, file := range files {
		data, err := fs.ReadFile(fsys, dir+"/"+file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}
		content := string(data)
		if strings.TrimSpace(content) == "" {
			continue
		}

		stmts := []string{content}
		if split {
			if err := validateNoSemicolonInStrings(content); err != nil {
				return fmt.Errorf("validate migration %s: %w", file, err)
			}
			stmts = splitStatements(content)
		}

		for _, stmt := range stmts {
			if err := exec(ctx, stmt); err != nil {
				return fmt.Errorf("apply migration %s: %w", file, err)
			}
		}
	}
	return nil
}

// sqlFiles lists .sql file names directly under dir, sorted.
func sqlFiles(fsys fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read embedded %s migrations: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// splitStatements splits SQL content on semicolons after dropping blank
// and "--" comment lines. Semicolons inside string literals or block
// comments are not supported; validateNoSemicolonInStrings guards the first.
func splitStatements(input string) []string {
	var filtered []string
	for _, line := range strings.Split(input, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		filtered = append(filtered, line)
	}

	var stmts []string
	for _, part := range strings.Split(strings.Join(filtered, "\n"), ";") {
		if stmt := strings.TrimSpace(part); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}

// validateNoSemicolonInStrings rejects SQL with a semicolon inside a
// single-quoted literal. A doubled quote inside a literal is an escape.
func validateNoSemicolonInStrings(sql string) error {
	inString := false
	for i := 0; i < len(sql); i++ {
		switch ch := sql[i]; {
		case ch == '\'' && inString && i+1 < len(sql) && sql[i+1] == '\'':
			i++
		case ch == '\'':
			inString = !inString
		case ch == ';' && inString:
			return fmt.Errorf("semicolon inside string literal at offset %d", i)
		}
	}
	return nil
}

func databaseFromDSN(dsn string) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("parse clickhouse dsn: %w", err)
	}
	db := strings.TrimPrefix(u.Path, "/")
	if db == "" {
		return "", fmt.Errorf("clickhouse dsn missing database")
	}
	return db, nil
}
