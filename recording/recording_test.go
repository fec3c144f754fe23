package recording_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tinapiao/icgen"
	"github.com/tinapiao/icgen/capdac"
	"github.com/tinapiao/icgen/cells"
	"github.com/tinapiao/icgen/layouttest"
	"github.com/tinapiao/icgen/recording"
)

func setup(t *testing.T) (*recording.Recorder, func()) {
	path := filepath.Join(t.TempDir(), "test")
	r, err := recording.New(path)
	require.NoError(t, err)
	return r, func() {
		r.Close()
		os.Remove(path + ".sqlite3")
	}
}

func design(t *testing.T, name string, bits int) *icgen.Design {
	lib, err := cells.Library(0)
	require.NoError(t, err)
	res, err := capdac.New(name, lib, capdac.Params{Bits: bits})
	require.NoError(t, err)
	return res.Design
}

func TestNew(t *testing.T) {
	r, cleanup := setup(t)
	defer cleanup()

	var name string
	err := r.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?;", recording.TableRecords).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, recording.TableRecords, name)

	_, err = recording.New(r.Path()[:len(r.Path())-len(".sqlite3")])
	assert.Error(t, err, "existing database file should be rejected")
}

func TestRecord(t *testing.T) {
	r, cleanup := setup(t)
	defer cleanup()

	d := design(t, "dac3", 3)
	require.NoError(t, r.Record(d))
	require.NoError(t, r.Flush())

	lines, err := r.Lines("dac3")
	require.NoError(t, err)
	assert.Equal(t, layouttest.Lines(d), lines)

	var n int
	require.NoError(t, r.QueryRow("SELECT COUNT(*) FROM "+recording.TableInstances+" WHERE Design='dac3';").Scan(&n))
	assert.Equal(t, len(d.Instances()), n)

	var nx int
	require.NoError(t, r.QueryRow("SELECT NX FROM "+recording.TableInstances+" WHERE Name='XC2';").Scan(&nx))
	assert.Equal(t, 4, nx)

	var layer int
	require.NoError(t, r.QueryRow("SELECT Layer FROM "+recording.TablePins+" WHERE Name='ctop';").Scan(&layer))
	assert.Equal(t, 2, layer)
}

func TestBatches(t *testing.T) {
	r, cleanup := setup(t)
	defer cleanup()
	r.SetBatchSize(3)

	a, b := design(t, "a", 2), design(t, "b", 4)
	require.NoError(t, r.Record(a))
	require.NoError(t, r.Record(b))
	require.NoError(t, r.Flush())

	ds, err := r.Designs()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ds)

	lines, err := r.Lines("b")
	require.NoError(t, err)
	assert.Len(t, lines, b.Len())
}

func TestWriteBeforeStart(t *testing.T) {
	r, cleanup := setup(t)
	defer cleanup()

	d := design(t, "dac", 1)
	assert.Error(t, d.Emit(r))
}

func TestUnfinished(t *testing.T) {
	r, cleanup := setup(t)
	defer cleanup()

	lib, err := cells.Library(0)
	require.NoError(t, err)
	d, err := icgen.NewDesign("open", lib)
	require.NoError(t, err)
	assert.Error(t, r.Record(d))
	require.NoError(t, r.Flush())
	lines, err := r.Lines("open")
	require.NoError(t, err)
	assert.Empty(t, lines)
}
