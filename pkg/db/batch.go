package db

import (
	"context"
	"database/sql"
	"fmt"
)

const DefaultBatchSize = 400

// BatchError is returned when a batched write fails. Row counts every row handed to
// the batch, so rows before the last successful commit are already stored.
type BatchError struct {
	Row       int
	Committed int
	Err       error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("batch write failed at row %d (%d rows committed): %v", e.Row, e.Committed, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}

// Batch writes rows in transactions of Size rows. Statements are prepared once per
// transaction.
type Batch struct {
	db    *sql.DB
	size  int
	tx    *sql.Tx
	stmts map[string]*sql.Stmt

	pending   int
	rows      int
	committed int
}

func (d *ConektDB) NewBatch(size int) *Batch {
	if size <= 0 {
		size = DefaultBatchSize
	}
	return &Batch{db: d.SQL, size: size}
}

// Exec runs query inside the current transaction and commits once the batch is full.
// On error the open transaction is rolled back and a *BatchError is returned.
func (b *Batch) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	b.rows++

	if b.tx == nil {
		tx, err := b.db.BeginTx(ctx, nil)
		if err != nil {
			return nil, b.fail(err)
		}
		b.tx = tx
		b.stmts = make(map[string]*sql.Stmt)
	}

	stmt, ok := b.stmts[query]
	if !ok {
		var err error
		stmt, err = b.tx.PrepareContext(ctx, query)
		if err != nil {
			return nil, b.fail(err)
		}
		b.stmts[query] = stmt
	}

	res, err := stmt.ExecContext(ctx, args...)
	if err != nil {
		return nil, b.fail(err)
	}

	b.pending++
	if b.pending >= b.size {
		if err := b.commit(); err != nil {
			return nil, b.fail(err)
		}
	}

	return res, nil
}

// Flush commits the rows written since the last commit.
func (b *Batch) Flush() error {
	if b.tx == nil {
		return nil
	}
	if err := b.commit(); err != nil {
		return b.fail(err)
	}
	return nil
}

// Rollback drops the rows written since the last commit.
func (b *Batch) Rollback() {
	if b.tx == nil {
		return
	}
	b.closeStmts()
	b.tx.Rollback()
	b.tx = nil
	b.pending = 0
}

// Committed returns the number of rows stored so far.
func (b *Batch) Committed() int {
	return b.committed
}

func (b *Batch) commit() error {
	b.closeStmts()
	err := b.tx.Commit()
	b.tx = nil
	if err != nil {
		b.pending = 0
		return err
	}
	b.committed += b.pending
	b.pending = 0
	return nil
}

func (b *Batch) closeStmts() {
	for _, stmt := range b.stmts {
		stmt.Close()
	}
	b.stmts = nil
}

func (b *Batch) fail(err error) error {
	b.Rollback()
	return &BatchError{Row: b.rows, Committed: b.committed, Err: err}
}
