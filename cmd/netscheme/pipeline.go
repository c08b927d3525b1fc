package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"netscheme/internal/codec"
	"netscheme/internal/config"
	"netscheme/internal/loader"
	"netscheme/internal/loader/sqlite"
	"netscheme/internal/logger"
	"netscheme/internal/scene"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

const formatSQLite = "sqlite"

// sourceFormat picks the decoder for path from its extension
func sourceFormat(path string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case "db", "sqlite", "sqlite3":
		return formatSQLite, nil
	case "":
		return "", fmt.Errorf("cannot infer format of %s: no extension", path)
	}
	if _, err := codec.ForFormat(ext); err != nil {
		return "", err
	}
	return ext, nil
}

// readNetwork decodes the network description stored at path
func readNetwork(ctx context.Context, path string) (*loader.Network, error) {
	format, err := sourceFormat(path)
	if err != nil {
		return nil, err
	}

	if format == formatSQLite {
		repo, err := sqlite.New(path)
		if err != nil {
			return nil, err
		}
		defer repo.Close()
		return repo.Load(ctx)
	}

	c, err := codec.ForFormat(format)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return c.Parse(f)
}

// buildScene creates a scene from cfg and ingests net into it
func buildScene(cfg *config.Config, net *loader.Network, reg prometheus.Registerer) (*scene.Scene, *loader.Report, error) {
	s, err := scene.FromConfig(cfg, reg)
	if err != nil {
		return nil, nil, err
	}
	report, err := loader.Apply(net, s)
	if err != nil {
		return nil, nil, err
	}
	return s, report, nil
}

// writeSnapshot exports every representation of s in format to w
func writeSnapshot(s *scene.Scene, table, format string, w io.Writer) error {
	exp, err := codec.ForFormat(format)
	if err != nil {
		return err
	}
	snap, err := codec.NewSnapshot(s, table)
	if err != nil {
		return err
	}
	return exp.Export(snap, w)
}

// logEvents reports scene events until ctx ends or events is closed. A
// rescale means every representation changed and the renderer must redraw.
func logEvents(ctx context.Context, events <-chan scene.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			switch ev.Type {
			case scene.EventRescaled:
				payload, _ := ev.Payload.(map[string]any)
				logger.Info("redraw required", "kind", payload["kind"], "max", payload["max"])
			default:
				logger.Debug("scene event", "type", ev.Type)
			}
		}
	}
}

// counterLine is one gathered counter sample
type counterLine struct {
	Name  string
	Value float64
}

// gatherCounters flattens every counter family of g into sorted lines
func gatherCounters(g prometheus.Gatherer) ([]counterLine, error) {
	families, err := g.Gather()
	if err != nil {
		return nil, err
	}
	var out []counterLine
	for _, mf := range families {
		if mf.GetType() != dto.MetricType_COUNTER {
			continue
		}
		for _, m := range mf.GetMetric() {
			out = append(out, counterLine{
				Name:  mf.GetName() + labelSuffix(m.GetLabel()),
				Value: m.GetCounter().GetValue(),
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func labelSuffix(labels []*dto.LabelPair) string {
	if len(labels) == 0 {
		return ""
	}
	parts := make([]string, len(labels))
	for i, l := range labels {
		parts[i] = fmt.Sprintf("%s=%q", l.GetName(), l.GetValue())
	}
	return "{" + strings.Join(parts, ",") + "}"
}
