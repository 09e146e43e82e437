// Package build holds the batch jobs that compute derived annotations and write them
// back to the CoNekT database.
package build

import (
	"github.com/yumyai/conektbuild/pkg/db"
	"github.com/yumyai/conektbuild/pkg/phylo"
	"github.com/yumyai/conektbuild/pkg/stats"
)

var DefaultCategories = []string{"annotation", "po_anatomy_class", "po_dev_stage_class", "peco_class"}

// Builder carries the database and run settings shared by the jobs.
//
// Every job reads what it needs before it starts writing: the SQLite handle allows
// a single connection and a Batch keeps it busy until the batch is flushed.
type Builder struct {
	DB             *db.ConektDB
	BatchSize      int
	NumBins        int
	Categories     []string
	CladeCacheSize int
}

func NewBuilder(d *db.ConektDB) *Builder {
	return &Builder{
		DB:             d,
		BatchSize:      db.DefaultBatchSize,
		NumBins:        stats.DefaultNumBins,
		Categories:     DefaultCategories,
		CladeCacheSize: phylo.DefaultCladeCacheSize,
	}
}

func (b *Builder) newBatch() *db.Batch {
	return b.DB.NewBatch(b.BatchSize)
}
