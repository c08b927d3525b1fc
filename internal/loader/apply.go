package loader

import (
	"errors"
	"fmt"

	"netscheme/internal/domain"
	"netscheme/internal/logger"
)

// Ingestor receives the entities and edges of a network description
type Ingestor interface {
	DefineEntity(kind domain.EntityKind, label string, props domain.Properties) (domain.GID, error)
	DefineEdge(table string, src, dst domain.GID, props domain.Properties) error
	SetParent(child, parent domain.GID) error
}

// ConnectionTable is the table connections are defined in
const ConnectionTable = "connectsTo"

// Report counts what a load did and what it skipped
type Report struct {
	Populations        int `json:"populations" yaml:"populations"`
	Connections        int `json:"connections" yaml:"connections"`
	Memberships        int `json:"memberships" yaml:"memberships"`
	SkippedPopulations int `json:"skipped_populations" yaml:"skipped_populations"`
	SkippedConnections int `json:"skipped_connections" yaml:"skipped_connections"`
	SkippedMemberships int `json:"skipped_memberships" yaml:"skipped_memberships"`
	// Defaulted counts unrecognized values replaced by a default
	Defaulted int `json:"defaulted" yaml:"defaulted"`
}

// Skipped returns the number of items not ingested
func (r *Report) Skipped() int {
	return r.SkippedPopulations + r.SkippedConnections + r.SkippedMemberships
}

func (r *Report) String() string {
	return fmt.Sprintf("%d populations, %d connections, %d memberships (skipped %d/%d/%d)",
		r.Populations, r.Connections, r.Memberships,
		r.SkippedPopulations, r.SkippedConnections, r.SkippedMemberships)
}

// Apply ingests net. Only structural failures of the ingestor other than
// unresolved references abort the load; everything else is skipped and
// counted.
func Apply(net *Network, ing Ingestor) (*Report, error) {
	report := &Report{}
	byName := make(map[string]domain.GID, len(net.Populations))

	for i := range net.Populations {
		spec := &net.Populations[i]
		if _, dup := byName[spec.Name]; dup {
			logger.Warn("duplicate population name", "name", spec.Name)
			report.SkippedPopulations++
			continue
		}
		kind, err := domain.ParseKind(spec.Kind)
		if err != nil {
			logger.Warn("skipping population", "name", spec.Name, "error", err)
			report.SkippedPopulations++
			continue
		}
		gid, err := ing.DefineEntity(kind, spec.Name, populationProperties(kind, spec))
		if err != nil {
			if errors.Is(err, domain.ErrUnknownKind) {
				report.SkippedPopulations++
				continue
			}
			return report, fmt.Errorf("population %q: %w", spec.Name, err)
		}
		byName[spec.Name] = gid
		report.Populations++
	}

	for _, spec := range net.Populations {
		if spec.Parent == "" {
			continue
		}
		child, okChild := byName[spec.Name]
		parent, okParent := byName[spec.Parent]
		if !okChild || !okParent {
			logger.Warn("unresolved parent", "population", spec.Name, "parent", spec.Parent)
			report.SkippedMemberships++
			continue
		}
		if err := ing.SetParent(child, parent); err != nil {
			logger.Warn("skipping membership", "population", spec.Name, "parent", spec.Parent, "error", err)
			report.SkippedMemberships++
			continue
		}
		report.Memberships++
	}

	for i := range net.Connections {
		spec := &net.Connections[i]
		src, okSrc := byName[spec.Source]
		dst, okDst := byName[spec.Target]
		if !okSrc || !okDst {
			logger.Warn("unresolved connection endpoint", "source", spec.Source, "target", spec.Target)
			report.SkippedConnections++
			continue
		}
		conn, defaulted := connection(spec)
		report.Defaulted += defaulted
		if err := ing.DefineEdge(ConnectionTable, src, dst, conn.Properties()); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				report.SkippedConnections++
				continue
			}
			return report, fmt.Errorf("connection %s -> %s: %w", spec.Source, spec.Target, err)
		}
		report.Connections++
	}

	logger.Info("network loaded", "populations", report.Populations,
		"connections", report.Connections, "skipped", report.Skipped())
	return report, nil
}

func populationProperties(kind domain.EntityKind, spec *PopulationSpec) domain.Properties {
	props := make(domain.Properties, len(spec.Properties)+3)
	for name, raw := range spec.Properties {
		v, ok := toValue(raw)
		if !ok {
			logger.Warn("ignoring property", "population", spec.Name, "property", name)
			continue
		}
		props[name] = v
	}
	props[domain.PropEntityName] = domain.String(spec.Name)

	switch kind {
	case domain.KindPopulation:
		if spec.Model != "" {
			props[domain.PropNeuronModel] = domain.Enum(spec.Model)
		}
	case domain.KindInput:
		if spec.Model != "" {
			props[domain.PropInputType] = domain.Enum(spec.Model)
		}
	case domain.KindOutput:
		if spec.Model != "" {
			props[domain.PropOutputModel] = domain.Enum(spec.Model)
		}
	}

	if spec.Neurons != nil {
		if kind == domain.KindSuperPopulation {
			props[domain.PropNbNeuronsMean] = domain.Number(*spec.Neurons)
		} else {
			props[domain.PropNbNeurons] = domain.Number(*spec.Neurons)
		}
	}
	return props
}

// toValue converts a decoded YAML or JSON value into a property value
func toValue(raw any) (domain.Value, bool) {
	switch v := raw.(type) {
	case int:
		return domain.Number(float64(v)), true
	case int64:
		return domain.Number(float64(v)), true
	case float64:
		return domain.Number(v), true
	case string:
		return domain.String(v), true
	case bool:
		if v {
			return domain.Number(1), true
		}
		return domain.Number(0), true
	case map[string]any:
		mean, okMean := toFloat(v["mean"])
		sigma, okSigma := toFloat(v["sigma"])
		if okMean && okSigma {
			return domain.Gaussian(mean, sigma), true
		}
	}
	return domain.Value{}, false
}

func toFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}

// connection builds the typed connection of spec and reports how many
// values were defaulted. Silent fields take the ingestion defaults:
// all-to-all, fixed weight 1, fixed delay 0, threshold 0.
func connection(spec *ConnectionSpec) (domain.Connection, int) {
	conn := domain.DefaultConnection()
	defaulted := 0
	conn.Label = spec.Name
	if spec.Pattern != "" {
		p, err := domain.ParsePattern(spec.Pattern)
		if err != nil {
			logger.Warn("connectivity defaulted", "source", spec.Source, "target", spec.Target, "error", err)
			defaulted++
		} else {
			conn.Pattern = p
		}
	}
	conn.Probability = spec.Probability
	conn.FanOut = spec.FanOut
	conn.FanIn = spec.FanIn
	conn.Cutoff = spec.Cutoff
	conn.Sigma = spec.Sigma
	for _, q := range []struct {
		name string
		spec *QuantitySpec
		dst  *domain.Quantity
	}{
		{"weight", spec.Weight, &conn.Weight},
		{"delay", spec.Delay, &conn.Delay},
	} {
		v, ok := q.spec.quantity(*q.dst)
		if !ok {
			logger.Warn(q.name+" defaulted", "source", spec.Source, "target", spec.Target, "error", domain.ErrNonFiniteValue)
			defaulted++
		}
		*q.dst = v
	}
	threshold := 0.0
	if spec.Threshold != nil {
		threshold = *spec.Threshold
	}
	conn.Threshold = &threshold
	return conn, defaulted
}
