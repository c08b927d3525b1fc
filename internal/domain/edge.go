package domain

// Edge is one relationship instance. Properties may be nil for tables that
// only record adjacency, such as the inverse of a connection table.
type Edge struct {
	Src        GID        `json:"src"`
	Dst        GID        `json:"dst"`
	Properties Properties `json:"properties,omitempty"`
}

// Pair returns the ordered endpoint pair of the edge
func (e Edge) Pair() Pair {
	return Pair{Src: e.Src, Dst: e.Dst}
}
