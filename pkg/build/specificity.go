package build

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/yumyai/conektbuild/logger"
	"github.com/yumyai/conektbuild/pkg/model"
	"github.com/yumyai/conektbuild/pkg/stats"
	"go.uber.org/zap"
)

type SpecificityReport struct {
	Profiles        int
	Methods         int
	Specificities   int
	SkippedProfiles int
}

type parsedProfile struct {
	id   int64
	data *model.ProfileData
}

// Specificity computes, for every literature source and sample category of a species,
// the most specific condition of each expression profile.
func (b *Builder) Specificity(ctx context.Context, speciesCode string) (*SpecificityReport, error) {
	species, err := model.GetSpeciesByCode(ctx, b.DB.SQL, speciesCode)
	if err != nil {
		return nil, err
	}

	rows, err := model.GetProfilesBySpecies(ctx, b.DB.SQL, species.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load expression profiles: %w", err)
	}

	report := &SpecificityReport{Profiles: len(rows)}

	profiles := make([]parsedProfile, 0, len(rows))
	dois := make(map[string]struct{})
	for _, r := range rows {
		data, err := model.ParseProfile(r.Profile)
		if err != nil {
			logger.Warn("Failed to parse profile", zap.Int64("profile_id", r.ID), zap.Error(err))
			report.SkippedProfiles++
			continue
		}
		for _, doi := range data.LitDOI {
			dois[doi] = struct{}{}
		}
		profiles = append(profiles, parsedProfile{id: r.ID, data: data})
	}

	literature, err := b.lookupLiterature(ctx, dois)
	if err != nil {
		return nil, err
	}

	logger.Info("Calculating expression specificities",
		zap.String("species", species.Code),
		zap.Int("profiles", len(profiles)),
		zap.Int("literature", len(literature)))

	batch := b.newBatch()
	defer batch.Rollback()

	for _, category := range b.Categories {
		for _, lit := range literature {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			conditions := sampleConditions(profiles, category, lit.DOI)
			if len(conditions) < 2 {
				logger.Debug("Not enough annotations, skipping",
					zap.String("category", category), zap.String("doi", lit.DOI))
				continue
			}

			method := &model.SpecificityMethod{
				SpeciesID:    species.ID,
				Description:  methodDescription(category, lit),
				LiteratureID: sql.NullInt64{Int64: lit.ID, Valid: true},
				DataType:     "condition",
				MenuOrder:    0,
				Conditions:   conditions,
			}
			methodID, err := model.InsertSpecificityMethod(ctx, batch, method)
			if err != nil {
				return nil, fmt.Errorf("failed to add specificity method %q: %w", method.Description, err)
			}
			report.Methods++

			for _, p := range profiles {
				s, ok := b.topSpecificity(p, category, lit.DOI)
				if !ok {
					continue
				}
				s.MethodID = methodID

				if err := model.InsertSpecificity(ctx, batch, s); err != nil {
					return nil, fmt.Errorf("failed to add specificity for profile %d: %w", p.id, err)
				}
				report.Specificities++
			}

			logger.Info("Added specificity method", zap.String("description", method.Description))
		}
	}

	if err := batch.Flush(); err != nil {
		return nil, err
	}

	if report.SkippedProfiles > 0 {
		logger.Warn("Some profiles could not be parsed", zap.Int("skipped", report.SkippedProfiles))
	}

	return report, nil
}

// lookupLiterature resolves the referenced DOIs in sorted order. Unknown DOIs are skipped.
func (b *Builder) lookupLiterature(ctx context.Context, dois map[string]struct{}) ([]*model.Literature, error) {
	sorted := make([]string, 0, len(dois))
	for doi := range dois {
		sorted = append(sorted, doi)
	}
	sort.Strings(sorted)

	var literature []*model.Literature
	for _, doi := range sorted {
		lit, err := model.GetLiteratureByDOI(ctx, b.DB.SQL, doi)
		if errors.Is(err, model.ErrLiteratureNotFound) {
			logger.Warn("Literature not found in database, skipping", zap.String("doi", doi))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load literature %s: %w", doi, err)
		}
		literature = append(literature, lit)
	}

	return literature, nil
}

func methodDescription(category string, lit *model.Literature) string {
	return fmt.Sprintf("%s (%s, %d - %s)",
		strings.Replace(category, "_class", "", 1), lit.AuthorNames, lit.PublicYear, lit.DOI)
}

// sampleConditions lists the distinct conditions of category among the samples of doi,
// in the order they are first seen.
func sampleConditions(profiles []parsedProfile, category, doi string) []string {
	seen := make(map[string]struct{})
	var conditions []string

	for _, p := range profiles {
		p.data.EachAnnotation(category, func(sample, condition string) {
			if p.data.LitDOI[sample] != doi {
				return
			}
			if _, ok := seen[condition]; ok {
				return
			}
			seen[condition] = struct{}{}
			conditions = append(conditions, condition)
		})
	}

	return conditions
}

// topSpecificity averages the samples of doi per condition and returns the condition
// with the highest SPM. ok is false when the profile has no annotated sample of doi.
func (b *Builder) topSpecificity(p parsedProfile, category, doi string) (*model.Specificity, bool) {
	groups := make(map[string][]float64)
	var order []string

	for _, s := range p.data.TPM {
		if p.data.LitDOI[s.Name] != doi {
			continue
		}
		condition, ok := p.data.Annotation(category, s.Name)
		if !ok {
			continue
		}
		if _, ok := groups[condition]; !ok {
			order = append(order, condition)
		}
		groups[condition] = append(groups[condition], s.Value)
	}

	if len(order) == 0 {
		return nil, false
	}

	means := make([]stats.ConditionValue, len(order))
	values := make([]float64, len(order))
	for i, condition := range order {
		var sum float64
		for _, v := range groups[condition] {
			sum += v
		}
		values[i] = sum / float64(len(groups[condition]))
		means[i] = stats.ConditionValue{Condition: condition, Value: values[i]}
	}

	best, ok := stats.MaxSPM(means, false)
	if !ok {
		return nil, false
	}

	s := &model.Specificity{
		ProfileID: p.id,
		Condition: best.Condition,
		Score:     best.Value,
		Entropy:   stats.EntropyFromValues(values, b.NumBins),
	}
	if tau, ok := stats.Tau(values); ok {
		s.Tau = sql.NullFloat64{Float64: tau, Valid: true}
	}

	return s, true
}
