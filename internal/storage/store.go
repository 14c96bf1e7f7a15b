package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// TideStore is the persistence contract for tidal workflow records.
//
// Get, Update and AddFlow report a missing record as (nil, nil): the
// absence of a backing file is logical absence, not an error.
type TideStore interface {
	// Create persists a new tide with a fresh id and returns it.
	Create(ctx context.Context, input CreateTideInput) (*Tide, error)
	// Get retrieves a tide by id.
	Get(ctx context.Context, id string) (*Tide, error)
	// List returns all tides matching the filter, most recent first.
	List(ctx context.Context, filter ListFilter) ([]*Tide, error)
	// Update applies a partial update to an existing tide.
	Update(ctx context.Context, id string, patch TidePatch) (*Tide, error)
	// AddFlow appends a flow entry and advances the schedule.
	AddFlow(ctx context.Context, id string, entry FlowEntry) (*Tide, error)
}

// FileTideStore keeps one pretty-printed JSON file per tide inside a
// single directory. There is no cross-record coordination: concurrent
// mutations of the same id are last-writer-wins by whole-file
// overwrite.
type FileTideStore struct {
	dir      string
	validate *validator.Validate
}

var _ TideStore = (*FileTideStore)(nil)

// NewFileTideStore creates the storage directory (with parents) and
// returns a store rooted there. Failure to create the directory is
// fatal by contract: callers must not start serving operations
// without a writable store.
func NewFileTideStore(dir string) (*FileTideStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err,
			"failed to create storage directory %s: configure a writable path via TIDES_STORAGE_PATH or storage.path",
			dir)
	}
	return &FileTideStore{
		dir:      dir,
		validate: validator.New(),
	}, nil
}

// Dir returns the storage directory path.
func (s *FileTideStore) Dir() string {
	return s.dir
}

// Create persists a new tide. The id is a timestamp plus a 6-digit
// random suffix; collisions are accepted as negligible.
func (s *FileTideStore) Create(ctx context.Context, input CreateTideInput) (*Tide, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, errors.Wrap(err, "invalid create input")
	}

	now := time.Now()
	tide := &Tide{
		ID:          newTideID(now),
		Name:        input.Name,
		FlowType:    input.FlowType,
		Status:      StatusActive,
		CreatedAt:   now.Format(TimeLayout),
		NextFlow:    NextFlowAfter(input.FlowType, now),
		Description: input.Description,
		FlowHistory: []FlowEntry{},
	}

	if err := s.save(tide); err != nil {
		return nil, err
	}
	return tide, nil
}

// Get reads and parses the single file named by id. A missing file
// and a file that fails to parse are treated identically: the record
// does not exist.
func (s *FileTideStore) Get(ctx context.Context, id string) (*Tide, error) {
	data, err := os.ReadFile(s.recordPath(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "failed to read tide %s", id)
	}

	var tide Tide
	if err := json.Unmarshal(data, &tide); err != nil {
		return nil, nil
	}
	return &tide, nil
}

// List scans every .json file in the storage directory, skipping
// files that fail to parse, and returns the matching tides sorted by
// created_at descending. A scan-level failure degrades to an empty
// result rather than an error.
func (s *FileTideStore) List(ctx context.Context, filter ListFilter) ([]*Tide, error) {
	if err := s.validate.Struct(filter); err != nil {
		return nil, errors.Wrap(err, "invalid list filter")
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return []*Tide{}, nil
	}

	tides := []*Tide{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			continue
		}
		var tide Tide
		if err := json.Unmarshal(data, &tide); err != nil {
			// Skip corrupt or foreign files.
			continue
		}

		if filter.FlowType != "" && tide.FlowType != filter.FlowType {
			continue
		}
		if filter.ActiveOnly && tide.Status != StatusActive {
			continue
		}
		tides = append(tides, &tide)
	}

	sort.SliceStable(tides, func(i, j int) bool {
		return parseRecordTime(tides[i].CreatedAt).After(parseRecordTime(tides[j].CreatedAt))
	})
	return tides, nil
}

// Update shallow-merges the patch over the stored record. The id is
// never touched, even when the patch carries one.
func (s *FileTideStore) Update(ctx context.Context, id string, patch TidePatch) (*Tide, error) {
	if err := s.validate.Struct(patch); err != nil {
		return nil, errors.Wrap(err, "invalid patch")
	}

	tide, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if tide == nil {
		return nil, nil
	}

	if patch.Name != nil {
		tide.Name = *patch.Name
	}
	if patch.Status != nil {
		tide.Status = *patch.Status
	}
	if patch.LastFlow != nil {
		tide.LastFlow = *patch.LastFlow
	}
	if patch.NextFlow != nil {
		tide.NextFlow = *patch.NextFlow
	}
	if patch.Description != nil {
		tide.Description = *patch.Description
	}
	if patch.FlowHistory != nil {
		tide.FlowHistory = patch.FlowHistory
	}
	tide.ID = id

	if err := s.save(tide); err != nil {
		return nil, err
	}
	return tide, nil
}

// AddFlow appends entry to the tide's history, sets last_flow to the
// entry timestamp and recomputes next_flow from it for recurring
// flow types.
func (s *FileTideStore) AddFlow(ctx context.Context, id string, entry FlowEntry) (*Tide, error) {
	if err := s.validate.Struct(entry); err != nil {
		return nil, errors.Wrap(err, "invalid flow entry")
	}
	flowTime, err := time.Parse(TimeLayout, entry.Timestamp)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid flow timestamp %q", entry.Timestamp)
	}

	tide, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if tide == nil {
		return nil, nil
	}

	tide.FlowHistory = append(tide.FlowHistory, entry)
	tide.LastFlow = entry.Timestamp
	if next := NextFlowAfter(tide.FlowType, flowTime); next != "" {
		tide.NextFlow = next
	}

	if err := s.save(tide); err != nil {
		return nil, err
	}
	return tide, nil
}

// save overwrites the record file in full. No temp-file rename: a
// crash mid-write can corrupt this one record, which the read path
// then treats as absent.
func (s *FileTideStore) save(tide *Tide) error {
	data, err := json.MarshalIndent(tide, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "failed to encode tide %s", tide.ID)
	}
	if err := os.WriteFile(s.recordPath(tide.ID), data, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write tide %s", tide.ID)
	}
	return nil
}

func (s *FileTideStore) recordPath(id string) string {
	return filepath.Join(s.dir, id+".json")
}

func newTideID(now time.Time) string {
	return fmt.Sprintf("tide_%d_%d", now.Unix(), 100000+rand.IntN(900000))
}

// parseRecordTime parses a stored timestamp for sorting. Unparsable
// values sort last.
func parseRecordTime(value string) time.Time {
	t, err := time.Parse(TimeLayout, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
