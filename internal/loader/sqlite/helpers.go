package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"netscheme/internal/domain"
	"netscheme/internal/loader"
)

// ============================================================================
// Null Type Conversion Helpers
// ============================================================================

// nullToString safely converts sql.NullString to string
func nullToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// stringToNull safely converts string to sql.NullString
func stringToNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullToFloatPtr converts sql.NullFloat64 to *float64
func nullToFloatPtr(nf sql.NullFloat64) *float64 {
	if nf.Valid {
		return &nf.Float64
	}
	return nil
}

// floatPtrToNull converts *float64 to sql.NullFloat64
func floatPtrToNull(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

// zeroToNull stores the zero value as NULL
func zeroToNull(f float64) sql.NullFloat64 {
	if f == 0 {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: f, Valid: true}
}

// ============================================================================
// JSON Marshaling Helpers
// ============================================================================

// unmarshalJSONField safely unmarshals JSON from nullable string into target
func unmarshalJSONField(ns sql.NullString, target interface{}) error {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(ns.String), target)
}

// marshalToNull marshals a map to a nullable JSON string
// Returns empty NullString for nil or empty maps
func marshalToNull(m map[string]any) (sql.NullString, error) {
	if len(m) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// ============================================================================
// Row Types
// ============================================================================

type populationRow struct {
	name       string
	kind       string
	model      sql.NullString
	neurons    sql.NullFloat64
	parent     sql.NullString
	properties sql.NullString
}

func (r *populationRow) scanArgs() []interface{} {
	return []interface{}{&r.name, &r.kind, &r.model, &r.neurons, &r.parent, &r.properties}
}

func (r *populationRow) toSpec() (loader.PopulationSpec, error) {
	spec := loader.PopulationSpec{
		Name:    r.name,
		Kind:    r.kind,
		Model:   nullToString(r.model),
		Neurons: nullToFloatPtr(r.neurons),
		Parent:  nullToString(r.parent),
	}
	if err := unmarshalJSONField(r.properties, &spec.Properties); err != nil {
		return spec, fmt.Errorf("population %q properties: %w", r.name, err)
	}
	return spec, nil
}

func populationInsertArgs(spec *loader.PopulationSpec) ([]interface{}, error) {
	props, err := marshalToNull(spec.Properties)
	if err != nil {
		return nil, fmt.Errorf("population %q properties: %w", spec.Name, err)
	}
	kind := spec.Kind
	if kind == "" {
		kind = string(domain.KindPopulation)
	}
	return []interface{}{
		spec.Name,
		kind,
		stringToNull(spec.Model),
		floatPtrToNull(spec.Neurons),
		stringToNull(spec.Parent),
		props,
	}, nil
}

type quantityColumns struct {
	fixed sql.NullFloat64
	mean  sql.NullFloat64
	sigma sql.NullFloat64
}

func (q *quantityColumns) toSpec() *loader.QuantitySpec {
	switch {
	case q.mean.Valid:
		return loader.Gaussian(q.mean.Float64, q.sigma.Float64)
	case q.fixed.Valid:
		return loader.Fixed(q.fixed.Float64)
	}
	return nil
}

func quantityArgs(q *loader.QuantitySpec) []interface{} {
	var cols quantityColumns
	switch {
	case q == nil:
	case q.Gaussian != nil:
		cols.mean = sql.NullFloat64{Float64: q.Gaussian.Mean, Valid: true}
		cols.sigma = sql.NullFloat64{Float64: q.Gaussian.Sigma, Valid: true}
	case q.Fixed != nil:
		cols.fixed = floatPtrToNull(q.Fixed)
	}
	return []interface{}{cols.fixed, cols.mean, cols.sigma}
}

type connectionRow struct {
	name        sql.NullString
	source      string
	target      string
	pattern     sql.NullString
	probability sql.NullFloat64
	fanOut      sql.NullFloat64
	fanIn       sql.NullFloat64
	cutoff      sql.NullFloat64
	sigma       sql.NullFloat64
	weight      quantityColumns
	delay       quantityColumns
	threshold   sql.NullFloat64
}

func (r *connectionRow) scanArgs() []interface{} {
	return []interface{}{
		&r.name, &r.source, &r.target, &r.pattern,
		&r.probability, &r.fanOut, &r.fanIn, &r.cutoff, &r.sigma,
		&r.weight.fixed, &r.weight.mean, &r.weight.sigma,
		&r.delay.fixed, &r.delay.mean, &r.delay.sigma,
		&r.threshold,
	}
}

func (r *connectionRow) toSpec() loader.ConnectionSpec {
	return loader.ConnectionSpec{
		Name:        nullToString(r.name),
		Source:      r.source,
		Target:      r.target,
		Pattern:     nullToString(r.pattern),
		Probability: r.probability.Float64,
		FanOut:      r.fanOut.Float64,
		FanIn:       r.fanIn.Float64,
		Cutoff:      r.cutoff.Float64,
		Sigma:       r.sigma.Float64,
		Weight:      r.weight.toSpec(),
		Delay:       r.delay.toSpec(),
		Threshold:   nullToFloatPtr(r.threshold),
	}
}

func connectionInsertArgs(spec *loader.ConnectionSpec) []interface{} {
	args := []interface{}{
		stringToNull(spec.Name),
		spec.Source,
		spec.Target,
		stringToNull(spec.Pattern),
		zeroToNull(spec.Probability),
		zeroToNull(spec.FanOut),
		zeroToNull(spec.FanIn),
		zeroToNull(spec.Cutoff),
		zeroToNull(spec.Sigma),
	}
	args = append(args, quantityArgs(spec.Weight)...)
	args = append(args, quantityArgs(spec.Delay)...)
	return append(args, floatPtrToNull(spec.Threshold))
}
