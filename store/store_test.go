package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/jing2uo/b3hist/model"
)

var testRevision = Revision{Date: "2024-01-05", Time: "18:30:00", Toolchain: "go1.25.3 linux/amd64"}

func newStore(t *testing.T) *Store {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "db")
	require.NoError(t, Init(dir, testRevision))
	s, err := Open(dir, testRevision, zaptest.NewLogger(t))
	require.NoError(t, err)
	return s
}

func sampleQuotes() []model.DailyQuote {
	return []model.DailyQuote{
		{
			TradingDate:  model.TradingDay(2024, time.January, 2),
			StockSpec:    "ON NM",
			PriceFactor:  1,
			OpeningPrice: 3500,
			ClosingPrice: 3512,
			MinimumPrice: 3490,
			MaximumPrice: 3530,
			AveragePrice: 3507,
			TotalTrades:  70123,
			TotalStocks:  41000000,
			TotalVolume:  143787000000,
		},
		{
			TradingDate:  model.TradingDay(2024, time.January, 3),
			StockSpec:    "ON EJ NM",
			PriceFactor:  1000000,
			OpeningPrice: 3512,
			ClosingPrice: 3601,
			MinimumPrice: 3511,
			MaximumPrice: 3610,
			AveragePrice: 3580,
			TotalTrades:  65000,
			TotalStocks:  39000000,
			TotalVolume:  139620000000,
		},
	}
}

func TestWriteLoadRoundTrip(t *testing.T) {
	s := newStore(t)
	quotes := sampleQuotes()

	require.NoError(t, s.Write("PETR4", quotes, 1))

	h, err := s.Load("PETR4")
	require.NoError(t, err)
	require.NotNil(t, h)
	defer h.Close()

	assert.Equal(t, model.StockID("PETR4"), h.Stock())
	assert.Equal(t, 2, h.Len())
	assert.Equal(t, 1, h.LastXplit())
	assert.Equal(t, quotes, h.Quotes(0))
	assert.Equal(t, quotes[1:], h.Quotes(h.LastXplit()))
	assert.Nil(t, h.Quotes(2))

	buf := make([]byte, recordSize)
	require.NoError(t, encodeRecord(buf, quotes[1]))
	assert.Equal(t, buf, h.Record(1))

	info, err := os.Stat(s.Path("PETR4"))
	require.NoError(t, err)
	assert.Equal(t, int64(headerSize+2*recordSize), info.Size())
}

func TestLoadMissingStock(t *testing.T) {
	s := newStore(t)

	h, err := s.Load("NOPE3")
	assert.NoError(t, err)
	assert.Nil(t, h)
	assert.NoError(t, h.Close())
}

func TestLoadCorruptFile(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Write("PETR4", sampleQuotes(), 0))

	data, err := os.ReadFile(s.Path("PETR4"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(s.Path("PETR4"), data[:len(data)-1], 0o644))

	_, err = s.Load("PETR4")
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestWriteRejects(t *testing.T) {
	s := newStore(t)

	assert.ErrorIs(t, s.Write("../etc", nil, 0), model.ErrInvalidStockID)
	assert.ErrorIs(t, s.Write(".hidden", nil, 0), model.ErrInvalidStockID)
	assert.Error(t, s.Write("PETR4", sampleQuotes(), 3))

	long := sampleQuotes()
	long[0].StockSpec = "ON EJ NM ABC"
	assert.Error(t, s.Write("PETR4", long, 0))

	ids, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, ids)
	assertNoLeftovers(t, s)
}

func TestList(t *testing.T) {
	s := newStore(t)
	for _, id := range []model.StockID{"VALE3", "ABEV3", "PETR4"} {
		require.NoError(t, s.Write(id, sampleQuotes(), 0))
	}
	require.NoError(t, os.Mkdir(filepath.Join(s.Dir(), "subdir"), 0o755))
	require.NoError(t, os.WriteFile(s.BackupPath("ITUB4"), nil, 0o644))

	ids, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []model.StockID{"ABEV3", "PETR4", "VALE3"}, ids)
}

func TestOpenRevisionGuard(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")

	_, err := Open(dir, testRevision, nil)
	assert.Error(t, err, "missing directory")

	require.NoError(t, os.MkdirAll(dir, 0o755))
	_, err = Open(dir, testRevision, nil)
	assert.ErrorIs(t, err, ErrStaleDatabase, "missing marker")

	require.NoError(t, Init(dir, testRevision))
	other := testRevision
	other.Time = "18:31:00"
	_, err = Open(dir, other, nil)
	assert.ErrorIs(t, err, ErrStaleDatabase, "other build")

	_, err = Open(dir, testRevision, nil)
	assert.NoError(t, err)
}

func TestInitWipes(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Write("PETR4", sampleQuotes(), 0))
	require.NoError(t, os.WriteFile(s.BackupPath("PETR4"), nil, 0o644))

	require.NoError(t, Init(s.Dir(), testRevision))

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, MarkerName, entries[0].Name())

	marker, err := ReadMarker(s.Dir())
	require.NoError(t, err)
	assert.Equal(t, "2024-01-05\n18:30:00\ngo1.25.3 linux/amd64\n", string(marker))
}

func TestWriteInterruptedBeforePromote(t *testing.T) {
	s := newStore(t)
	old := sampleQuotes()[:1]
	require.NoError(t, s.Write("PETR4", old, 0))

	crash := errors.New("power loss")
	calls := 0
	s.rename = func(oldpath, newpath string) error {
		calls++
		if calls == 2 {
			return crash
		}
		return os.Rename(oldpath, newpath)
	}

	err := s.Write("PETR4", sampleQuotes(), 0)
	require.ErrorIs(t, err, crash)

	_, err = os.Stat(s.Path("PETR4"))
	require.True(t, os.IsNotExist(err), "official file was moved aside")
	_, err = os.Stat(s.BackupPath("PETR4"))
	require.NoError(t, err, "backup is in place")

	h, err := s.Load("PETR4")
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.Equal(t, old, h.Quotes(0))
	assert.Equal(t, s.BackupPath("PETR4"), h.Path())
	require.NoError(t, h.Close())

	s.rename = os.Rename
	require.NoError(t, s.Write("PETR4", sampleQuotes(), 0))

	_, err = os.Stat(s.BackupPath("PETR4"))
	assert.True(t, os.IsNotExist(err), "backup is gone")
	h, err = s.Load("PETR4")
	require.NoError(t, err)
	defer h.Close()
	assert.Equal(t, 2, h.Len())
	assertNoLeftovers(t, s)
}

func assertNoLeftovers(t *testing.T, s *Store) {
	t.Helper()
	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	for _, e := range entries {
		if e.Name() == MarkerName {
			continue
		}
		assert.NotEqual(t, byte('.'), e.Name()[0], "leftover %s", e.Name())
	}
}

func fixedTime(t time.Time) func() (time.Time, error) {
	return func() (time.Time, error) { return t, nil }
}

func TestResolveRevisionUnstamped(t *testing.T) {
	built := time.Date(2024, time.January, 5, 18, 30, 0, 0, time.UTC)

	first := resolveRevision("", "", nil, fixedTime(built))
	assert.Equal(t, "2024-01-05", first.Date)
	assert.Equal(t, "18:30:00.000000000", first.Time)

	rebuilt := resolveRevision("", "", nil, fixedTime(built.Add(time.Millisecond)))
	assert.NotEqual(t, first.Content(), rebuilt.Content())

	dir := filepath.Join(t.TempDir(), "db")
	require.NoError(t, Init(dir, first))
	assert.NoError(t, CheckRevision(dir, first))
	assert.ErrorIs(t, CheckRevision(dir, rebuilt), ErrStaleDatabase)
}

func TestResolveRevisionSources(t *testing.T) {
	noExe := func() (time.Time, error) { return time.Time{}, fmt.Errorf("no executable") }
	built := fixedTime(time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC))
	info := &debug.BuildInfo{Settings: []debug.BuildSetting{
		{Key: "vcs.revision", Value: "0123456789abcdef"},
		{Key: "vcs.time", Value: "2024-02-10T08:15:00Z"},
		{Key: "vcs.modified", Value: "true"},
	}}

	stamped := resolveRevision("2024-01-05", "18:30:00", info, built)
	assert.Equal(t, "2024-01-05", stamped.Date)
	assert.Equal(t, "18:30:00", stamped.Time)
	assert.Equal(t, "0123456789abcdef+dirty", stamped.Build)
	assert.Contains(t, string(stamped.Content()), "\n0123456789abcdef+dirty\n")

	fromExe := resolveRevision("", "", info, built)
	assert.Equal(t, "2024-03-01", fromExe.Date)

	fromVCS := resolveRevision("", "", info, noExe)
	assert.Equal(t, "2024-02-10", fromVCS.Date)
	assert.Equal(t, "08:15:00", fromVCS.Time)

	clean := resolveRevision("", "", &debug.BuildInfo{Settings: []debug.BuildSetting{
		{Key: "vcs.revision", Value: "0123456789abcdef"},
		{Key: "vcs.modified", Value: "false"},
	}}, noExe)
	assert.Equal(t, "0123456789abcdef", clean.Build)
	assert.NotEqual(t, clean.Content(), fromVCS.Content())

	unknown := resolveRevision("", "", nil, noExe)
	assert.Equal(t, "unknown\nunknown\n"+unknown.Toolchain+"\n", string(unknown.Content()))
}

func TestCurrentRevisionUsesExecutable(t *testing.T) {
	rev := CurrentRevision()
	assert.NotEqual(t, "unknown", rev.Date)
	assert.NotEqual(t, "unknown", rev.Time)
}
