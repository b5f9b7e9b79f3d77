package scenario

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"Windcalc/internal/calc/wind"
	"Windcalc/internal/observability"
)

const testDir = "/data"

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

type fixture struct {
	fs      afero.Fs
	store   *Store
	metrics *observability.Metrics
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	fs := afero.NewMemMapFs()
	metrics := observability.NewMetricsForTesting()
	store := NewStore(NewFileBlob(fs, testDir), clockwork.NewFakeClockAt(testNow), zap.NewNop(), metrics)
	return fixture{fs: fs, store: store, metrics: metrics}
}

func (f fixture) writeRaw(t *testing.T, data string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(f.fs, testDir+"/"+StorageKey+".json", []byte(data), 0o644))
}

func named(name string) Scenario {
	return Scenario{
		Name:   name,
		Mode:   wind.ModeAuto,
		Tab:    wind.CodeIS,
		Inputs: map[string]string{wind.KeyHeight: "10", "note": name},
	}
}

func TestList_EmptyWhenAbsent(t *testing.T) {
	f := newFixture(t)
	list, err := f.store.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestList_CorruptBlobFailsOpen(t *testing.T) {
	for _, raw := range []string{"{not json", `{"name":"x"}`, `"text"`} {
		t.Run(raw, func(t *testing.T) {
			f := newFixture(t)
			f.writeRaw(t, raw)

			list, err := f.store.List(context.Background())
			require.NoError(t, err)
			assert.Empty(t, list)
			assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CorruptBlobs))
		})
	}
}

func TestList_NullBlobIsEmpty(t *testing.T) {
	f := newFixture(t)
	f.writeRaw(t, "null")

	list, err := f.store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Equal(t, 0.0, testutil.ToFloat64(f.metrics.CorruptBlobs))
}

func TestSave_ReplacesCorruptBlob(t *testing.T) {
	f := newFixture(t)
	f.writeRaw(t, "garbage")

	idx, err := f.store.Save(context.Background(), named("fresh"))
	require.NoError(t, err)
	assert.Equal(t, 0, idx)

	list, err := f.store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "fresh", list[0].Name)
}

func TestSave_RequiresName(t *testing.T) {
	f := newFixture(t)
	for _, name := range []string{"", "   "} {
		_, err := f.store.Save(context.Background(), named(name))
		assert.ErrorIs(t, err, ErrValidation)
	}

	exists, err := afero.Exists(f.fs, testDir+"/"+StorageKey+".json")
	require.NoError(t, err)
	assert.False(t, exists, "storage must not be touched for an invalid scenario")
}

func TestSave_LoadAtRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.store.Save(ctx, named("first"))
	require.NoError(t, err)

	in := Scenario{
		Name: "Tower B",
		Mode: wind.ModeManual,
		Tab:  wind.CodeASCE,
		Inputs: map[string]string{
			wind.KeyCity:    "",
			wind.KeyHeight:  "045.50",
			wind.KeyManualV: "1e2",
			wind.KeyManualU: "mph",
			wind.KeyISK1:    "1.0",
			wind.KeyASCEExp: " C ",
			"unknown":       "kept as is",
		},
	}
	idx, err := f.store.Save(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	got, err := f.store.LoadAt(ctx, idx)
	require.NoError(t, err)
	if diff := cmp.Diff(in.Inputs, got.Inputs); diff != "" {
		t.Errorf("inputs mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "Tower B", got.Name)
	assert.Equal(t, wind.ModeManual, got.Mode)
	assert.Equal(t, wind.CodeASCE, got.Tab)
	assert.True(t, testNow.Equal(got.Time))
}

func TestSave_KeepsGivenTime(t *testing.T) {
	f := newFixture(t)
	when := time.Date(2025, 12, 1, 8, 0, 0, 0, time.UTC)
	sc := named("dated")
	sc.Time = when

	idx, err := f.store.Save(context.Background(), sc)
	require.NoError(t, err)
	got, err := f.store.LoadAt(context.Background(), idx)
	require.NoError(t, err)
	assert.True(t, when.Equal(got.Time))
}

func TestSave_AllowsDuplicateNames(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		idx, err := f.store.Save(ctx, named("same"))
		require.NoError(t, err)
		assert.Equal(t, i, idx)
	}
	list, err := f.store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestDeleteAt_PreservesOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, n := range []string{"a", "b", "c"} {
		_, err := f.store.Save(ctx, named(n))
		require.NoError(t, err)
	}

	require.NoError(t, f.store.DeleteAt(ctx, 0))

	list, err := f.store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].Name)
	assert.Equal(t, "c", list[1].Name)
}

func TestOutOfBounds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.store.Save(ctx, named("only"))
	require.NoError(t, err)

	for _, idx := range []int{-1, 1, 7} {
		_, err := f.store.LoadAt(ctx, idx)
		assert.ErrorIs(t, err, ErrNotFound, "load %d", idx)
		assert.ErrorIs(t, f.store.DeleteAt(ctx, idx), ErrNotFound, "delete %d", idx)
	}

	list, err := f.store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, 6.0, testutil.ToFloat64(f.metrics.ScenarioOps.WithLabelValues("load", "error"))+
		testutil.ToFloat64(f.metrics.ScenarioOps.WithLabelValues("delete", "error")))
}

func TestList_ReadsBrowserWrittenBlob(t *testing.T) {
	f := newFixture(t)
	f.writeRaw(t, `[{"name":"Mumbai tower","time":"2024-05-01T10:20:30.123Z","mode":"auto","tab":"is",`+
		`"inputs":{"city":"60","height":"30","man_v":"","man_unit":"","is_k1":"1.15","is_k2":"1.0","is_k3":"1.0","is_k4":"1.0",`+
		`"is_w":"12","is_l":"20","asce_V":"","asce_exp":"0.85","asce_kd":"0.85","asce_kzt":"1.0"}}]`)

	sc, err := f.store.LoadAt(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, "Mumbai tower", sc.Name)
	assert.Equal(t, 2024, sc.Time.Year())
	assert.Equal(t, "60", sc.Inputs[wind.KeyCity])

	c := wind.NewCalculator(wind.DefaultTables())
	res := c.Calculate(c.ParseInputs(sc.Tab, sc.Mode, sc.Inputs))
	assert.Equal(t, 69.0, res.DesignSpeed)
}

func TestList_BadTimeKeepsEntry(t *testing.T) {
	f := newFixture(t)
	f.writeRaw(t, `[{"name":"a","time":"2024-05-01T10:20:30Z","mode":"auto","tab":"is","inputs":{"height":"10"}},`+
		`{"name":"b","time":"","mode":"auto","tab":"is","inputs":{}},`+
		`{"name":"c","time":1714558830000,"mode":"manual","tab":"asce"},`+
		`{"name":"d","time":"yesterday"}]`)
	ctx := context.Background()

	list, err := f.store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 4)
	assert.Equal(t, 2024, list[0].Time.Year())
	assert.Equal(t, "10", list[0].Inputs[wind.KeyHeight])
	for _, sc := range list[1:] {
		assert.True(t, sc.Time.IsZero(), sc.Name)
	}
	assert.Equal(t, wind.CodeASCE, list[2].Tab)
	assert.Equal(t, 0.0, testutil.ToFloat64(f.metrics.CorruptBlobs))

	idx, err := f.store.Save(ctx, named("e"))
	require.NoError(t, err)
	assert.Equal(t, 4, idx)

	list, err = f.store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 5)
	assert.Equal(t, "b", list[1].Name)
	assert.True(t, testNow.Equal(list[4].Time))
}

type failingBlob struct{ err error }

func (b failingBlob) Load(context.Context, string) ([]byte, error) { return nil, b.err }
func (b failingBlob) Save(context.Context, string, []byte) error   { return b.err }

func TestBackendErrorsPropagate(t *testing.T) {
	boom := errors.New("disk on fire")
	store := NewStore(failingBlob{err: boom}, clockwork.NewFakeClock(), zap.NewNop(), observability.NewMetricsForTesting())
	ctx := context.Background()

	_, err := store.List(ctx)
	assert.ErrorIs(t, err, boom)
	_, err = store.Save(ctx, named("x"))
	assert.ErrorIs(t, err, boom)
	_, err = store.LoadAt(ctx, 0)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, store.DeleteAt(ctx, 0), boom)
}
