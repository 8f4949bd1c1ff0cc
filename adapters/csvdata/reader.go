package csvdata

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/simonsteiger/strix/domain/posterior"
	"github.com/simonsteiger/strix/ports"
)

// PosteriorReader loads posterior draws from a long-format CSV with columns
// parameter,group,draw,value — one row per MCMC draw per parameter per group.
// Draw order within each (parameter, group) cell follows file order.
type PosteriorReader struct {
	path string
}

// NewPosteriorReader creates a reader for the given CSV file
func NewPosteriorReader(path string) *PosteriorReader {
	return &PosteriorReader{path: path}
}

// ReadPosterior parses the file into a validated posterior sample
func (r *PosteriorReader) ReadPosterior(_ context.Context) (*posterior.Sample, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open posterior file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read posterior header: %w", err)
	}

	cols, err := columnIndex(header, "parameter", "group", "value")
	if err != nil {
		return nil, fmt.Errorf("posterior file %s: %w", r.path, err)
	}

	type cell struct {
		param posterior.ParamName
		group posterior.GroupID
	}
	draws := make(map[cell][]float64)
	var order []cell

	for row := 2; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("posterior file %s row %d: %w", r.path, row, err)
		}

		value, err := strconv.ParseFloat(strings.TrimSpace(record[cols["value"]]), 64)
		if err != nil {
			return nil, fmt.Errorf("posterior file %s row %d: bad value: %w", r.path, row, err)
		}

		key := cell{
			param: posterior.ParamName(strings.TrimSpace(record[cols["parameter"]])),
			group: posterior.GroupID(strings.TrimSpace(record[cols["group"]])),
		}
		if _, seen := draws[key]; !seen {
			order = append(order, key)
		}
		draws[key] = append(draws[key], value)
	}

	sample := posterior.NewSample()
	for _, key := range order {
		sample.Set(key.param, key.group, draws[key])
	}
	if err := sample.Validate(); err != nil {
		return nil, fmt.Errorf("posterior file %s: %w", r.path, err)
	}
	return sample, nil
}

// ObservationReader loads the anthropometric observation table with columns
// height,weight,age,sex. Rows failing numeric parsing fail the whole read;
// filtering (e.g. adults only) is the caller's concern.
type ObservationReader struct {
	path string
}

// NewObservationReader creates a reader for the given CSV file
func NewObservationReader(path string) *ObservationReader {
	return &ObservationReader{path: path}
}

// ReadObservations parses the observation table
func (r *ObservationReader) ReadObservations(_ context.Context) ([]ports.Observation, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open observations file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read observations header: %w", err)
	}

	cols, err := columnIndex(header, "height", "weight", "age", "sex")
	if err != nil {
		return nil, fmt.Errorf("observations file %s: %w", r.path, err)
	}

	var obs []ports.Observation
	for row := 2; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("observations file %s row %d: %w", r.path, row, err)
		}

		height, err := strconv.ParseFloat(strings.TrimSpace(record[cols["height"]]), 64)
		if err != nil {
			return nil, fmt.Errorf("observations file %s row %d: bad height: %w", r.path, row, err)
		}
		weight, err := strconv.ParseFloat(strings.TrimSpace(record[cols["weight"]]), 64)
		if err != nil {
			return nil, fmt.Errorf("observations file %s row %d: bad weight: %w", r.path, row, err)
		}
		age, err := strconv.ParseFloat(strings.TrimSpace(record[cols["age"]]), 64)
		if err != nil {
			return nil, fmt.Errorf("observations file %s row %d: bad age: %w", r.path, row, err)
		}

		obs = append(obs, ports.Observation{
			Height: height,
			Weight: weight,
			Age:    age,
			Group:  posterior.GroupID(strings.TrimSpace(record[cols["sex"]])),
		})
	}
	return obs, nil
}

// columnIndex maps required header names (case-insensitive) to positions
func columnIndex(header []string, required ...string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	cols := make(map[string]int, len(required))
	for _, name := range required {
		pos, ok := index[name]
		if !ok {
			return nil, fmt.Errorf("missing required column %q", name)
		}
		cols[name] = pos
	}
	return cols, nil
}

var (
	_ ports.PosteriorReaderPort   = (*PosteriorReader)(nil)
	_ ports.ObservationReaderPort = (*ObservationReader)(nil)
)
