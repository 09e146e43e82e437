package db

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"

	"github.com/yumyai/conektbuild/internal/util"
	"github.com/yumyai/conektbuild/logger"
	"go.uber.org/zap"

	_ "modernc.org/sqlite"
)

type ConektDB struct {
	SQL  *sql.DB
	Path string
}

// Open connects to the SQLite database at path. The parent folder is created when
// it does not exist yet.
func Open(path string) (*ConektDB, error) {
	dir := filepath.Dir(path)
	created, err := util.EnsureDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to create database folder: %w", err)
	}
	if created {
		logger.Warn("Database folder did not exist, created it", zap.String("dir", dir))
	}

	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path)
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}

	// SQLite allows a single writer.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database %s: %w", path, err)
	}

	return &ConektDB{SQL: sqlDB, Path: path}, nil
}

func (d *ConektDB) Close() error {
	return d.SQL.Close()
}

// EnsureSchema creates the tables the builders read and write if they are missing.
func (d *ConektDB) EnsureSchema(ctx context.Context) error {
	tx, err := d.SQL.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return tx.Commit()
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS species (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		code TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL DEFAULT '',
		sequence_count INTEGER NOT NULL DEFAULT 0,
		profile_count INTEGER NOT NULL DEFAULT 0,
		network_count INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS sequences (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		species_id INTEGER NOT NULL REFERENCES species(id),
		name TEXT NOT NULL,
		type TEXT NOT NULL DEFAULT 'protein_coding'
	)`,
	`CREATE INDEX IF NOT EXISTS ix_sequences_name ON sequences(name)`,
	`CREATE TABLE IF NOT EXISTS literature (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		author_names TEXT NOT NULL DEFAULT '',
		public_year INTEGER,
		doi TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS expression_profiles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		species_id INTEGER NOT NULL REFERENCES species(id),
		probe TEXT NOT NULL,
		sequence_id INTEGER REFERENCES sequences(id),
		profile TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS expression_specificity_method (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		species_id INTEGER NOT NULL REFERENCES species(id),
		description TEXT NOT NULL,
		literature_id INTEGER REFERENCES literature(id),
		data_type TEXT NOT NULL DEFAULT 'condition',
		menu_order INTEGER NOT NULL DEFAULT 0,
		conditions TEXT NOT NULL DEFAULT '[]'
	)`,
	`CREATE TABLE IF NOT EXISTS expression_specificity (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		profile_id INTEGER NOT NULL REFERENCES expression_profiles(id),
		condition TEXT NOT NULL,
		score REAL NOT NULL,
		entropy REAL NOT NULL,
		tau REAL,
		method_id INTEGER NOT NULL REFERENCES expression_specificity_method(id)
	)`,
	`CREATE TABLE IF NOT EXISTS expression_network_methods (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		species_id INTEGER NOT NULL REFERENCES species(id),
		description TEXT NOT NULL DEFAULT '',
		edge_type TEXT NOT NULL DEFAULT 'rank',
		probe_count INTEGER NOT NULL DEFAULT 0,
		hrr_cutoff INTEGER NOT NULL DEFAULT 100
	)`,
	`CREATE TABLE IF NOT EXISTS expression_networks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		probe TEXT NOT NULL,
		sequence_id INTEGER REFERENCES sequences(id),
		network TEXT NOT NULL DEFAULT '[]',
		method_id INTEGER NOT NULL REFERENCES expression_network_methods(id)
	)`,
	`CREATE TABLE IF NOT EXISTS coexpression_clustering_methods (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		network_method_id INTEGER NOT NULL REFERENCES expression_network_methods(id),
		method TEXT NOT NULL,
		cluster_count INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS coexpression_clusters (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		method_id INTEGER NOT NULL REFERENCES coexpression_clustering_methods(id),
		name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sequence_coexpression_cluster (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		probe TEXT,
		sequence_id INTEGER NOT NULL REFERENCES sequences(id),
		coexpression_cluster_id INTEGER NOT NULL REFERENCES coexpression_clusters(id)
	)`,
	`CREATE TABLE IF NOT EXISTS go (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		label TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL DEFAULT '',
		species_counts TEXT NOT NULL DEFAULT '{}'
	)`,
	`CREATE TABLE IF NOT EXISTS sequence_go (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sequence_id INTEGER NOT NULL REFERENCES sequences(id),
		go_id INTEGER NOT NULL REFERENCES go(id),
		evidence TEXT,
		source TEXT,
		predicted INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS ix_sequence_go_sequence ON sequence_go(sequence_id)`,
	`CREATE TABLE IF NOT EXISTS cluster_go_enrichment (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		cluster_id INTEGER NOT NULL REFERENCES coexpression_clusters(id),
		go_id INTEGER NOT NULL REFERENCES go(id),
		cluster_count INTEGER NOT NULL,
		cluster_size INTEGER NOT NULL,
		go_count INTEGER NOT NULL,
		go_size INTEGER NOT NULL,
		enrichment REAL NOT NULL,
		p_value REAL NOT NULL,
		corrected_p_value REAL NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS clades (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		species TEXT NOT NULL DEFAULT '[]',
		species_count INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS tree_methods (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		description TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS trees (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		label TEXT NOT NULL,
		data_newick TEXT NOT NULL,
		data_phyloxml TEXT,
		method_id INTEGER NOT NULL REFERENCES tree_methods(id)
	)`,
	`CREATE TABLE IF NOT EXISTS sequence_sequence_clade (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sequence_one_id INTEGER NOT NULL REFERENCES sequences(id),
		sequence_two_id INTEGER NOT NULL REFERENCES sequences(id),
		tree_id INTEGER NOT NULL REFERENCES trees(id),
		clade_id INTEGER NOT NULL REFERENCES clades(id),
		duplication INTEGER NOT NULL DEFAULT 0,
		duplication_consistency_score REAL
	)`,
}
