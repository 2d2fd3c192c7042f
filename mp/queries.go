package mp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"

	gojson "github.com/goccy/go-json"

	"github.com/hupe1980/xrdgo/peak"
	"github.com/hupe1980/xrdgo/record"
)

// Pattern rows are [intensity, hkl, two_theta, d_spacing].
const (
	colIntensity = 0
	colTwoTheta  = 2
)

// EntryIDs returns the sorted task ids of every entry in any chemical system
// spanned by pool.
func (s *Session) EntryIDs(ctx context.Context, pool []string) ([]string, error) {
	systems, err := ChemicalSystems(pool)
	if err != nil {
		return nil, err
	}
	docs, err := s.query(ctx, map[string]any{"chemsys": map[string]any{"$in": systems}}, []string{"task_id"})
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		var id string
		if err := gojson.Unmarshal(doc["task_id"], &id); err != nil || id == "" {
			return nil, &MalformedError{Property: "task_id", Err: errOr(err, "empty id")}
		}
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return slices.Compact(ids), nil
}

// PeakList returns the peak list of entry id for source (e.g. "xrd.Cu").
// ok is false when the entry has no pattern for the source.
func (s *Session) PeakList(ctx context.Context, id, source string) (peak.List, bool, error) {
	raw, err := s.property(ctx, id, source)
	if err != nil {
		return nil, false, err
	}
	if isNull(raw) {
		return nil, false, nil
	}

	var pattern struct {
		Pattern [][]gojson.RawMessage `json:"pattern"`
	}
	if err := gojson.Unmarshal(raw, &pattern); err != nil {
		return nil, false, &MalformedError{Property: source, Err: err}
	}

	list := make(peak.List, 0, len(pattern.Pattern))
	for i, row := range pattern.Pattern {
		if len(row) <= colTwoTheta {
			return nil, false, &MalformedError{Property: source, Err: fmt.Errorf("row %d has %d columns", i, len(row))}
		}
		var p peak.Peak
		if err := gojson.Unmarshal(row[colIntensity], &p.Intensity); err != nil {
			return nil, false, &MalformedError{Property: source, Err: fmt.Errorf("row %d intensity: %w", i, err)}
		}
		if err := gojson.Unmarshal(row[colTwoTheta], &p.Angle); err != nil {
			return nil, false, &MalformedError{Property: source, Err: fmt.Errorf("row %d two theta: %w", i, err)}
		}
		list = append(list, p)
	}
	return list, true, nil
}

// SpaceGroup returns the space group symbol of entry id.
func (s *Session) SpaceGroup(ctx context.Context, id string) (string, error) {
	raw, err := s.property(ctx, id, "spacegroup")
	if err != nil {
		return "", err
	}
	var sg struct {
		Symbol string `json:"symbol"`
	}
	if err := gojson.Unmarshal(raw, &sg); err != nil || sg.Symbol == "" {
		return "", &MalformedError{Property: "spacegroup", Err: errOr(err, "missing symbol")}
	}
	return sg.Symbol, nil
}

// Lattice returns a, b, c, alpha, beta, gamma of the initial structure of entry id.
func (s *Session) Lattice(ctx context.Context, id string) (record.Lattice, error) {
	raw, err := s.property(ctx, id, "initial_structure")
	if err != nil {
		return record.Lattice{}, err
	}
	var st struct {
		Lattice *struct {
			A     float64 `json:"a"`
			B     float64 `json:"b"`
			C     float64 `json:"c"`
			Alpha float64 `json:"alpha"`
			Beta  float64 `json:"beta"`
			Gamma float64 `json:"gamma"`
		} `json:"lattice"`
	}
	if err := gojson.Unmarshal(raw, &st); err != nil || st.Lattice == nil {
		return record.Lattice{}, &MalformedError{Property: "initial_structure", Err: errOr(err, "missing lattice")}
	}
	l := st.Lattice
	return record.Lattice{l.A, l.B, l.C, l.Alpha, l.Beta, l.Gamma}, nil
}

// property fetches a single property of entry id.
func (s *Session) property(ctx context.Context, id, name string) (gojson.RawMessage, error) {
	docs, err := s.query(ctx, map[string]any{"task_id": id}, []string{name})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoResult, id)
	}
	return docs[0][name], nil
}

func isNull(raw gojson.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

func errOr(err error, msg string) error {
	if err != nil {
		return err
	}
	return errors.New(msg)
}
