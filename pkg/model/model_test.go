package model

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yumyai/conektbuild/pkg/db"
)

func openTestDB(t *testing.T) *db.ConektDB {
	t.Helper()

	d, err := db.Open(filepath.Join(t.TempDir(), "conekt.db"))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })

	require.NoError(t, d.EnsureSchema(context.Background()))
	return d
}

func TestParseProfile(t *testing.T) {
	raw := `{"data": {
		"tpm": {"s3": 4, "s1": 1.5, "s2": 0},
		"lit_doi": {"s1": "10.1/a", "s2": "10.1/a", "s3": "10.1/b"},
		"annotation": {"s3": "root", "s1": "leaf", "s2": "leaf"},
		"order": ["s1", "s2", "s3"]
	}}`

	p, err := ParseProfile(raw)
	require.NoError(t, err)

	assert.Equal(t, []Sample{{"s3", 4}, {"s1", 1.5}, {"s2", 0}}, p.TPM)
	assert.Equal(t, "10.1/b", p.LitDOI["s3"])

	cond, ok := p.Annotation("annotation", "s1")
	assert.True(t, ok)
	assert.Equal(t, "leaf", cond)

	_, ok = p.Annotation("annotation", "s9")
	assert.False(t, ok)
	_, ok = p.Annotation("po_anatomy_class", "s1")
	assert.False(t, ok)

	var seen []string
	p.EachAnnotation("annotation", func(sample, condition string) {
		seen = append(seen, sample+"="+condition)
	})
	assert.Equal(t, []string{"s3=root", "s1=leaf", "s2=leaf"}, seen)
}

func TestParseProfileErrors(t *testing.T) {

	tests := []struct {
		name string
		raw  string
	}{
		{name: "InvalidJSON", raw: `{"data": `},
		{name: "NoData", raw: `{"tpm": {}}`},
		{name: "NoTPM", raw: `{"data": {"lit_doi": {}}}`},
		{name: "TextValue", raw: `{"data": {"tpm": {"s1": "high"}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseProfile(tt.raw)
			assert.ErrorIs(t, err, ErrMalformedProfile)
		})
	}
}

func TestNetworkLinks(t *testing.T) {
	e := &NetworkEntry{ID: 1, Network: `[
		{"gene_id": 2, "hrr": 3, "probe_name": "p2"},
		{"gene_id": null, "hrr": 4},
		{"hrr": 5},
		{"gene_id": 7, "hrr": 12.5}
	]`}

	links, err := e.Links()
	require.NoError(t, err)
	assert.Equal(t, []NetworkLink{{GeneID: 2, HRR: 3}, {GeneID: 7, HRR: 12.5}}, links)

	_, err = (&NetworkEntry{ID: 2, Network: `{"gene_id": 1}`}).Links()
	assert.ErrorIs(t, err, ErrMalformedNetwork)
}

func TestSpeciesCounts(t *testing.T) {
	counts, err := decodeSpeciesCounts(`{"1": 10, "12": 3}`)
	require.NoError(t, err)
	assert.Equal(t, map[int64]int{1: 10, 12: 3}, counts)

	counts, err = decodeSpeciesCounts("")
	require.NoError(t, err)
	assert.Empty(t, counts)

	_, err = decodeSpeciesCounts(`{"ath": 1}`)
	assert.Error(t, err)

	encoded, err := encodeSpeciesCounts(map[int64]int{2: 1, 1: 4})
	require.NoError(t, err)
	assert.Equal(t, `{"1":4,"2":1}`, encoded)
}

func TestSpeciesLookup(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()

	_, err := d.SQL.Exec(`INSERT INTO species (code, name) VALUES ('ath', 'Arabidopsis thaliana')`)
	require.NoError(t, err)

	s, err := GetSpeciesByCode(ctx, d.SQL, "ath")
	require.NoError(t, err)
	assert.Equal(t, "Arabidopsis thaliana", s.Name)

	_, err = GetSpeciesByCode(ctx, d.SQL, "osa")
	assert.ErrorIs(t, err, ErrSpeciesNotFound)

	_, err = GetNetworkMethod(ctx, d.SQL, 3)
	assert.ErrorIs(t, err, ErrNetworkMethodNotFound)

	assert.ErrorIs(t, CheckTreeMethod(ctx, d.SQL, 1), ErrTreeMethodNotFound)
}

func TestGOAssociationCounts(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()

	stmts := []string{
		`INSERT INTO species (id, code) VALUES (1, 'ath')`,
		`INSERT INTO sequences (id, species_id, name) VALUES (1, 1, 'AT1'), (2, 1, 'AT2'), (3, 1, 'AT3')`,
		`INSERT INTO go (id, label) VALUES (10, 'GO:1'), (11, 'GO:2')`,
		`INSERT INTO sequence_go (sequence_id, go_id, predicted) VALUES
			(1, 10, 0), (1, 10, 0), (2, 10, 0), (2, 11, 1), (3, 11, 0)`,
	}
	for _, s := range stmts {
		_, err := d.SQL.Exec(s)
		require.NoError(t, err)
	}

	counts, err := GetGOAssociationCounts(ctx, d.SQL, []int64{1, 2, 2})
	require.NoError(t, err)
	assert.Equal(t, map[int64]int{10: 2}, counts)

	perSpecies, err := GetGOSpeciesCounts(ctx, d.SQL)
	require.NoError(t, err)
	assert.Equal(t, map[int64]map[int64]int{10: {1: 2}, 11: {1: 1}}, perSpecies)
}
