package scenario

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"Windcalc/internal/calc/wind"
	"Windcalc/internal/observability"
)

// StorageKey is the single key the whole scenario list is persisted under.
const StorageKey = "cd_wind_cases"

var (
	ErrValidation     = errors.New("invalid scenario")
	ErrNotFound       = errors.New("scenario not found")
	ErrStorageCorrupt = errors.New("scenario storage corrupt")
)

// Scenario is a named snapshot of the raw form fields. Inputs are kept as the
// user typed them so a reload restores the exact text.
type Scenario struct {
	Name   string            `json:"name"`
	Time   time.Time         `json:"time"`
	Mode   wind.Mode         `json:"mode"`
	Tab    wind.Code         `json:"tab"`
	Inputs map[string]string `json:"inputs"`
}

// UnmarshalJSON decodes a missing or malformed time as the zero time so one
// bad entry does not cost the rest of the list.
func (sc *Scenario) UnmarshalJSON(data []byte) error {
	type plain Scenario
	var aux struct {
		plain
		Time json.RawMessage `json:"time"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*sc = Scenario(aux.plain)
	sc.Time = parseTime(aux.Time)
	return nil
}

func parseTime(raw json.RawMessage) time.Time {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Blob is a key-value store holding one serialized document per key.
// Load returns nil data and no error when the key is absent.
type Blob interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}

// Store keeps an ordered scenario list under StorageKey. Every call reads the
// whole list and every mutation rewrites it; concurrent writers are not
// coordinated and the last write wins.
type Store struct {
	blob    Blob
	clock   clockwork.Clock
	logger  *zap.Logger
	metrics *observability.Metrics
}

func NewStore(blob Blob, clock clockwork.Clock, logger *zap.Logger, metrics *observability.Metrics) *Store {
	return &Store{blob: blob, clock: clock, logger: logger, metrics: metrics}
}

// List returns the saved scenarios in order. A missing or unreadable document
// is reported as an empty list.
func (s *Store) List(ctx context.Context) ([]Scenario, error) {
	list, err := s.read(ctx)
	s.observe("list", err)
	return list, err
}

// Save appends sc and returns its position.
func (s *Store) Save(ctx context.Context, sc Scenario) (int, error) {
	idx, err := s.save(ctx, sc)
	s.observe("save", err)
	return idx, err
}

func (s *Store) save(ctx context.Context, sc Scenario) (int, error) {
	sc.Name = strings.TrimSpace(sc.Name)
	if sc.Name == "" {
		return 0, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if sc.Time.IsZero() {
		sc.Time = s.clock.Now().UTC()
	}

	list, err := s.read(ctx)
	if err != nil {
		return 0, err
	}
	list = append(list, sc)
	if err := s.write(ctx, list); err != nil {
		return 0, err
	}
	return len(list) - 1, nil
}

func (s *Store) LoadAt(ctx context.Context, index int) (Scenario, error) {
	sc, err := s.loadAt(ctx, index)
	s.observe("load", err)
	return sc, err
}

func (s *Store) loadAt(ctx context.Context, index int) (Scenario, error) {
	list, err := s.read(ctx)
	if err != nil {
		return Scenario{}, err
	}
	if index < 0 || index >= len(list) {
		return Scenario{}, fmt.Errorf("%w: index %d of %d", ErrNotFound, index, len(list))
	}
	return list[index], nil
}

// DeleteAt removes the scenario at index, keeping the order of the rest.
func (s *Store) DeleteAt(ctx context.Context, index int) error {
	err := s.deleteAt(ctx, index)
	s.observe("delete", err)
	return err
}

func (s *Store) deleteAt(ctx context.Context, index int) error {
	list, err := s.read(ctx)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(list) {
		return fmt.Errorf("%w: index %d of %d", ErrNotFound, index, len(list))
	}
	list = append(list[:index], list[index+1:]...)
	return s.write(ctx, list)
}

func (s *Store) read(ctx context.Context) ([]Scenario, error) {
	data, err := s.blob.Load(ctx, StorageKey)
	if err != nil {
		return nil, fmt.Errorf("load scenarios: %w", err)
	}
	list, err := decode(data)
	if err != nil {
		s.logger.Warn("discarding unreadable scenario list", zap.Error(err), zap.Int("bytes", len(data)))
		s.metrics.CorruptBlobs.Inc()
		return []Scenario{}, nil
	}
	return list, nil
}

func (s *Store) write(ctx context.Context, list []Scenario) error {
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encode scenarios: %w", err)
	}
	if err := s.blob.Save(ctx, StorageKey, data); err != nil {
		return fmt.Errorf("save scenarios: %w", err)
	}
	return nil
}

func (s *Store) observe(op string, err error) {
	s.metrics.ScenarioOps.WithLabelValues(op, observability.Outcome(err)).Inc()
}

func decode(data []byte) ([]Scenario, error) {
	if len(data) == 0 {
		return []Scenario{}, nil
	}
	var list []Scenario
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageCorrupt, err)
	}
	if list == nil {
		list = []Scenario{}
	}
	return list, nil
}
