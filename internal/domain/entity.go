package domain

import "fmt"

// GID is the global identifier of an entity. Zero means "not yet assigned".
type GID uint64

// Pair is an ordered (source, destination) pair of entity ids
type Pair struct {
	Src GID
	Dst GID
}

// SelfLoop reports whether both ends are the same entity
func (p Pair) SelfLoop() bool {
	return p.Src == p.Dst
}

func (p Pair) String() string {
	return fmt.Sprintf("%d->%d", p.Src, p.Dst)
}

// EntityKind is the closed set of entity variants
type EntityKind string

const (
	KindPopulation      EntityKind = "population"
	KindSuperPopulation EntityKind = "super_population"
	KindInput           EntityKind = "input"
	KindOutput          EntityKind = "output"
	KindGeneric         EntityKind = "generic"
)

// Kinds lists every entity kind in declaration order
func Kinds() []EntityKind {
	return []EntityKind{KindPopulation, KindSuperPopulation, KindInput, KindOutput, KindGeneric}
}

// Valid reports whether k belongs to the closed set
func (k EntityKind) Valid() bool {
	switch k {
	case KindPopulation, KindSuperPopulation, KindInput, KindOutput, KindGeneric:
		return true
	}
	return false
}

// ParseKind converts a string to an EntityKind
func ParseKind(s string) (EntityKind, error) {
	k := EntityKind(s)
	if s == "" {
		return KindPopulation, nil
	}
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
	return k, nil
}

// Entity property names read by representations and the range tracker
const (
	PropEntityName    = "Entity name"
	PropNeuronModel   = "Neuron model"
	PropNbNeurons     = "Nb of neurons"
	PropNbNeuronsMean = "Nb of neurons Mean"
	PropChildDepth    = "child depth"
	PropInputType     = "Input type"
	PropOutputModel   = "Output model"
)

// Neuron models
const (
	NeuronModelIAFPscAlpha  = "iaf_psc_alpha"
	NeuronModelUndefined    = "undefined"
	NeuronModelKuramoto     = "nmm_kuramoto"
	NeuronModel2DOscillator = "nmm_2doscillator"
	NeuronModelProxy        = "proxy"
)

// Input types
const (
	InputTypePulse  = "pulse_input"
	InputTypeRandom = "random_stim"
)

// Output models
const (
	OutputModelMultimeter    = "multimeter"
	OutputModelVoltmeter     = "voltmeter"
	OutputModelSpikeDetector = "spike_detector"
)

// Entity is a typed, labeled node of the domain graph
type Entity struct {
	GID        GID        `json:"gid"`
	Kind       EntityKind `json:"kind"`
	Label      string     `json:"label"`
	Properties Properties `json:"properties,omitempty"`
}

// NewEntity creates an entity with an initialized property bag and no id
func NewEntity(kind EntityKind, label string) *Entity {
	return &Entity{
		Kind:       kind,
		Label:      label,
		Properties: make(Properties),
	}
}

// SetProperty sets a property value
func (e *Entity) SetProperty(name string, value Value) {
	if e.Properties == nil {
		e.Properties = make(Properties)
	}
	e.Properties[name] = value
}

// GetProperty gets a property value
func (e *Entity) GetProperty(name string) (Value, bool) {
	return e.Properties.Get(name)
}
