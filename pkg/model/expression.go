package model

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/yumyai/conektbuild/pkg/db"
)

var ErrMalformedProfile = errors.New("malformed expression profile")

// Sample is one TPM measurement of a profile.
type Sample struct {
	Name  string
	Value float64
}

// ProfileData is the decoded "data" object of an expression profile. Samples keep
// the order in which they are stored.
type ProfileData struct {
	TPM         []Sample
	LitDOI      map[string]string
	annotations map[string]gjson.Result
}

// ParseProfile decodes a profile blob of the form
// {"data": {"tpm": {...}, "lit_doi": {...}, "<category>": {...}}}.
func ParseProfile(raw string) (*ProfileData, error) {
	if !gjson.Valid(raw) {
		return nil, fmt.Errorf("%w: invalid json", ErrMalformedProfile)
	}

	data := gjson.Get(raw, "data")
	if !data.IsObject() {
		return nil, fmt.Errorf("%w: missing data object", ErrMalformedProfile)
	}

	tpm := data.Get("tpm")
	if !tpm.IsObject() {
		return nil, fmt.Errorf("%w: missing tpm values", ErrMalformedProfile)
	}

	p := &ProfileData{
		LitDOI:      make(map[string]string),
		annotations: make(map[string]gjson.Result),
	}

	var parseErr error
	tpm.ForEach(func(key, value gjson.Result) bool {
		if value.Type != gjson.Number {
			parseErr = fmt.Errorf("%w: sample %s has non numeric value %s", ErrMalformedProfile, key.String(), value.Raw)
			return false
		}
		p.TPM = append(p.TPM, Sample{Name: key.String(), Value: value.Float()})
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}

	data.Get("lit_doi").ForEach(func(key, value gjson.Result) bool {
		p.LitDOI[key.String()] = value.String()
		return true
	})

	data.ForEach(func(key, value gjson.Result) bool {
		if value.IsObject() {
			p.annotations[key.String()] = value
		}
		return true
	})

	return p, nil
}

// Annotation returns the annotation of sample in category.
func (p *ProfileData) Annotation(category, sample string) (string, bool) {
	cat, ok := p.annotations[category]
	if !ok {
		return "", false
	}
	v := cat.Get(gjson.Escape(sample))
	if !v.Exists() {
		return "", false
	}
	return v.String(), true
}

// EachAnnotation calls fn for every sample annotation of category in stored order.
func (p *ProfileData) EachAnnotation(category string, fn func(sample, condition string)) {
	cat, ok := p.annotations[category]
	if !ok {
		return
	}
	cat.ForEach(func(key, value gjson.Result) bool {
		fn(key.String(), value.String())
		return true
	})
}

func GetProfilesBySpecies(ctx context.Context, db *sql.DB, speciesID int64) ([]*ExpressionProfile, error) {

	qstring := `
		SELECT id, species_id, probe, sequence_id, profile
		FROM expression_profiles
		WHERE species_id = ?
		ORDER BY id
	`

	stm, err := db.PrepareContext(ctx, qstring)
	if err != nil {
		return nil, err
	}
	defer stm.Close()

	rows, err := stm.QueryContext(ctx, speciesID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []*ExpressionProfile
	for rows.Next() {
		var p ExpressionProfile
		if err := rows.Scan(&p.ID, &p.SpeciesID, &p.Probe, &p.SequenceID, &p.Profile); err != nil {
			return nil, fmt.Errorf("error scanning expression profile: %w", err)
		}
		profiles = append(profiles, &p)
	}

	return profiles, rows.Err()
}

func InsertSpecificityMethod(ctx context.Context, b *db.Batch, m *SpecificityMethod) (int64, error) {

	conditions, err := json.Marshal(m.Conditions)
	if err != nil {
		return 0, err
	}

	res, err := b.Exec(ctx, `
		INSERT INTO expression_specificity_method
			(species_id, description, literature_id, data_type, menu_order, conditions)
		VALUES (?, ?, ?, ?, ?, ?)`,
		m.SpeciesID, m.Description, m.LiteratureID, m.DataType, m.MenuOrder, string(conditions))
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func InsertSpecificity(ctx context.Context, b *db.Batch, s *Specificity) error {

	_, err := b.Exec(ctx, `
		INSERT INTO expression_specificity (profile_id, condition, score, entropy, tau, method_id)
		VALUES (?, ?, ?, ?, ?, ?)`,
		s.ProfileID, s.Condition, s.Score, s.Entropy, s.Tau, s.MethodID)

	return err
}
