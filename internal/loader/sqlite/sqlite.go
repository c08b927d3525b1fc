// Package sqlite stores network descriptions in a SQLite database.
//
// Populations and connections reference each other by name, without
// foreign keys, so a database can hold dangling references. They are
// reported as skipped when the network is applied.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"netscheme/internal/loader"

	_ "modernc.org/sqlite"
)

// Repository reads and writes network descriptions
type Repository struct {
	db *sql.DB
}

var _ loader.Source = (*Repository)(nil)

// New opens the database at dbPath and applies the schema
func New(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// :memory: databases are private to one connection
	db.SetMaxOpenConns(1)

	repo := &Repository{db: db}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS populations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		kind TEXT NOT NULL DEFAULT 'population',
		model TEXT,
		neurons REAL,
		parent TEXT,
		properties JSON
	);

	CREATE TABLE IF NOT EXISTS connections (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT,
		source TEXT NOT NULL,
		target TEXT NOT NULL,
		pattern TEXT,
		probability REAL,
		fan_out REAL,
		fan_in REAL,
		cutoff REAL,
		sigma REAL,
		weight REAL,
		weight_mean REAL,
		weight_sigma REAL,
		delay REAL,
		delay_mean REAL,
		delay_sigma REAL,
		threshold REAL
	);

	CREATE INDEX IF NOT EXISTS idx_connections_source ON connections(source);
	CREATE INDEX IF NOT EXISTS idx_connections_target ON connections(target);
	CREATE INDEX IF NOT EXISTS idx_populations_parent ON populations(parent);
	`

	_, err := r.db.Exec(schema)
	return err
}

// Load reads the whole network in insertion order
func (r *Repository) Load(ctx context.Context) (*loader.Network, error) {
	net := &loader.Network{}

	rows, err := r.db.QueryContext(ctx, `
		SELECT name, kind, model, neurons, parent, properties
		FROM populations ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query populations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var row populationRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("scan population: %w", err)
		}
		spec, err := row.toSpec()
		if err != nil {
			return nil, err
		}
		net.Populations = append(net.Populations, spec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	crows, err := r.db.QueryContext(ctx, `
		SELECT name, source, target, pattern, probability, fan_out, fan_in, cutoff, sigma,
		       weight, weight_mean, weight_sigma, delay, delay_mean, delay_sigma, threshold
		FROM connections ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query connections: %w", err)
	}
	defer crows.Close()
	for crows.Next() {
		var row connectionRow
		if err := crows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("scan connection: %w", err)
		}
		net.Connections = append(net.Connections, row.toSpec())
	}
	return net, crows.Err()
}

// Save replaces the stored network with net in one transaction
func (r *Repository) Save(ctx context.Context, net *loader.Network) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM connections"); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM populations"); err != nil {
		return err
	}

	for i := range net.Populations {
		args, err := populationInsertArgs(&net.Populations[i])
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO populations (name, kind, model, neurons, parent, properties)
			VALUES (?, ?, ?, ?, ?, ?)`, args...); err != nil {
			return fmt.Errorf("insert population %q: %w", net.Populations[i].Name, err)
		}
	}

	for i := range net.Connections {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO connections (name, source, target, pattern, probability, fan_out, fan_in, cutoff, sigma,
			                         weight, weight_mean, weight_sigma, delay, delay_mean, delay_sigma, threshold)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			connectionInsertArgs(&net.Connections[i])...); err != nil {
			return fmt.Errorf("insert connection %s -> %s: %w", net.Connections[i].Source, net.Connections[i].Target, err)
		}
	}

	return tx.Commit()
}

// Close releases the database
func (r *Repository) Close() error {
	return r.db.Close()
}
