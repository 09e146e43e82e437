package model

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

func GetSpeciesByCode(ctx context.Context, db *sql.DB, code string) (*Species, error) {

	qstring := `SELECT id, code, name, sequence_count, profile_count, network_count FROM species WHERE code = ?`

	var s Species
	err := db.QueryRowContext(ctx, qstring, code).Scan(&s.ID, &s.Code, &s.Name, &s.SequenceCount, &s.ProfileCount, &s.NetworkCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSpeciesNotFound, code)
	}
	if err != nil {
		return nil, err
	}

	return &s, nil
}

func GetSpeciesByID(ctx context.Context, db *sql.DB, id int64) (*Species, error) {

	qstring := `SELECT id, code, name, sequence_count, profile_count, network_count FROM species WHERE id = ?`

	var s Species
	err := db.QueryRowContext(ctx, qstring, id).Scan(&s.ID, &s.Code, &s.Name, &s.SequenceCount, &s.ProfileCount, &s.NetworkCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrSpeciesNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	return &s, nil
}

// GetSequencesByType returns every sequence of the given type with its species code.
func GetSequencesByType(ctx context.Context, db *sql.DB, seqType string) ([]*Sequence, error) {

	qstring := `
		SELECT s.id, s.name, s.type, s.species_id, sp.code
		FROM sequences s
		JOIN species sp ON sp.id = s.species_id
		WHERE s.type = ?
		ORDER BY s.id
	`

	stm, err := db.PrepareContext(ctx, qstring)
	if err != nil {
		return nil, err
	}
	defer stm.Close()

	rows, err := stm.QueryContext(ctx, seqType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sequences []*Sequence
	for rows.Next() {
		var s Sequence
		if err := rows.Scan(&s.ID, &s.Name, &s.Type, &s.SpeciesID, &s.SpeciesCode); err != nil {
			return nil, fmt.Errorf("error scanning sequence: %w", err)
		}
		sequences = append(sequences, &s)
	}

	return sequences, rows.Err()
}

func GetLiteratureByDOI(ctx context.Context, db *sql.DB, doi string) (*Literature, error) {

	qstring := `SELECT id, author_names, COALESCE(public_year, 0), doi FROM literature WHERE doi = ?`

	var l Literature
	err := db.QueryRowContext(ctx, qstring, doi).Scan(&l.ID, &l.AuthorNames, &l.PublicYear, &l.DOI)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrLiteratureNotFound, doi)
	}
	if err != nil {
		return nil, err
	}

	return &l, nil
}
