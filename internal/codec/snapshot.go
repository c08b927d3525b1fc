package codec

import (
	"netscheme/internal/domain"
	"netscheme/internal/represent"
	"netscheme/internal/scene"
)

// Snapshot is the exported view of every cached representation
type Snapshot struct {
	Maxima      Maxima           `json:"maxima" yaml:"maxima"`
	Entities    []EntityView     `json:"entities" yaml:"entities"`
	Connections []ConnectionView `json:"connections" yaml:"connections"`
}

// Maxima are the range tracker maxima, for legends
type Maxima struct {
	Magnitude      float64 `json:"magnitude" yaml:"magnitude"`
	AbsoluteWeight float64 `json:"absolute_weight" yaml:"absolute_weight"`
	HierarchyDepth float64 `json:"hierarchy_depth" yaml:"hierarchy_depth"`
}

// EntityView is one entity representation
type EntityView struct {
	Handle          represent.Handle `json:"handle" yaml:"handle"`
	GID             domain.GID       `json:"gid" yaml:"gid"`
	Kind            string           `json:"kind" yaml:"kind"`
	Name            string           `json:"name" yaml:"name"`
	Category        string           `json:"category,omitempty" yaml:"category,omitempty"`
	Color           string           `json:"color" yaml:"color"`
	Magnitude       float64          `json:"magnitude" yaml:"magnitude"`
	Rings           int              `json:"rings,omitempty" yaml:"rings,omitempty"`
	RingSeparation  float64          `json:"ring_separation,omitempty" yaml:"ring_separation,omitempty"`
	ColorSeparation float64          `json:"color_separation,omitempty" yaml:"color_separation,omitempty"`
	RingColors      []string         `json:"ring_colors,omitempty" yaml:"ring_colors,omitempty"`
}

// ConnectionView is one connection or self-loop representation
type ConnectionView struct {
	Handle     represent.Handle `json:"handle" yaml:"handle"`
	Variant    string           `json:"variant" yaml:"variant"`
	Source     domain.GID       `json:"source" yaml:"source"`
	Dest       domain.GID       `json:"dest" yaml:"dest"`
	SourceRep  represent.Handle `json:"source_rep" yaml:"source_rep"`
	DestRep    represent.Handle `json:"dest_rep" yaml:"dest_rep"`
	Name       string           `json:"name,omitempty" yaml:"name,omitempty"`
	Head       string           `json:"head" yaml:"head"`
	Width      uint             `json:"width" yaml:"width"`
	Weight     float64          `json:"weight" yaml:"weight"`
	Aggregated bool             `json:"aggregated,omitempty" yaml:"aggregated,omitempty"`
	EdgeCount  int              `json:"edge_count" yaml:"edge_count"`
	Table      string           `json:"table" yaml:"table"`
}

// NewSnapshot builds representations for every entity of s, then the
// connections among them in table, and captures the result
func NewSnapshot(s *scene.Scene, table string) (*Snapshot, error) {
	s.AllRepresentations()
	if _, err := s.ConnectionRepresentations(s.GIDs(), table); err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Maxima: Maxima{
			Magnitude:      s.MaxMagnitude(),
			AbsoluteWeight: s.MaxAbsoluteWeight(),
			HierarchyDepth: s.MaxHierarchyDepth(),
		},
		Entities:    make([]EntityView, 0),
		Connections: make([]ConnectionView, 0),
	}
	for _, r := range s.Cache().Entities() {
		snap.Entities = append(snap.Entities, entityView(r))
	}
	for _, e := range s.Cache().Connections() {
		r := e.Rep
		snap.Connections = append(snap.Connections, ConnectionView{
			Handle:     r.Handle,
			Variant:    r.Variant.String(),
			Source:     r.Source,
			Dest:       r.Dest,
			SourceRep:  r.SourceRep,
			DestRep:    r.DestRep,
			Name:       r.Name,
			Head:       string(r.Head),
			Width:      r.Width,
			Weight:     r.Weight,
			Aggregated: r.Aggregated,
			EdgeCount:  r.EdgeCount,
			Table:      e.Table,
		})
	}
	return snap, nil
}

func entityView(r *represent.Representation) EntityView {
	v := EntityView{
		Handle:          r.Handle,
		GID:             r.Entity,
		Kind:            string(r.Kind),
		Name:            r.Name,
		Category:        r.Category,
		Color:           r.Color.Hex(),
		Magnitude:       r.Magnitude,
		Rings:           r.Rings,
		RingSeparation:  r.RingSeparation,
		ColorSeparation: r.ColorSeparation,
	}
	for _, c := range r.RingColors {
		v.RingColors = append(v.RingColors, c.Hex())
	}
	return v
}
