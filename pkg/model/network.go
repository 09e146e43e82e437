package model

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

var ErrMalformedNetwork = errors.New("malformed network entry")

func GetNetworkMethod(ctx context.Context, db *sql.DB, id int64) (*NetworkMethod, error) {

	qstring := `
		SELECT id, species_id, description, edge_type, probe_count, hrr_cutoff
		FROM expression_network_methods
		WHERE id = ?
	`

	var m NetworkMethod
	err := db.QueryRowContext(ctx, qstring, id).Scan(
		&m.ID, &m.SpeciesID, &m.Description, &m.EdgeType, &m.ProbeCount, &m.HRRCutoff)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrNetworkMethodNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	return &m, nil
}

func GetNetworksByMethod(ctx context.Context, db *sql.DB, methodID int64) ([]*NetworkEntry, error) {

	qstring := `
		SELECT id, probe, sequence_id, network, method_id
		FROM expression_networks
		WHERE method_id = ?
		ORDER BY id
	`

	stm, err := db.PrepareContext(ctx, qstring)
	if err != nil {
		return nil, err
	}
	defer stm.Close()

	rows, err := stm.QueryContext(ctx, methodID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*NetworkEntry
	for rows.Next() {
		var e NetworkEntry
		if err := rows.Scan(&e.ID, &e.Probe, &e.SequenceID, &e.Network, &e.MethodID); err != nil {
			return nil, fmt.Errorf("error scanning network entry: %w", err)
		}
		entries = append(entries, &e)
	}

	return entries, rows.Err()
}

// Links decodes the neighbourhood of the entry. Neighbours without a gene id or an
// HRR are left out.
func (e *NetworkEntry) Links() ([]NetworkLink, error) {
	if !gjson.Valid(e.Network) {
		return nil, fmt.Errorf("%w: %d", ErrMalformedNetwork, e.ID)
	}

	neighbourhood := gjson.Parse(e.Network)
	if !neighbourhood.IsArray() {
		return nil, fmt.Errorf("%w: %d is not a list", ErrMalformedNetwork, e.ID)
	}

	var links []NetworkLink
	neighbourhood.ForEach(func(_, nb gjson.Result) bool {
		geneID := nb.Get("gene_id")
		hrr := nb.Get("hrr")
		if geneID.Type != gjson.Number || hrr.Type != gjson.Number {
			return true
		}
		links = append(links, NetworkLink{GeneID: geneID.Int(), HRR: hrr.Float()})
		return true
	})

	return links, nil
}
