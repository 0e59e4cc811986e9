package results

import (
	"bytes"
	"encoding/csv"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/gomapfields/analysis"
	"github.com/notargets/gomapfields/analytic"
	"github.com/notargets/gomapfields/remap"
)

func mappingRun(label string, cells int, l2 float64, created time.Time) Run {
	r := FromMapping(label, "source", "target", &remap.MappingReport{
		Kind:   analytic.SINUSOID_2D,
		Method: remap.CONSERVATIVE,
		Source: analysis.ErrorReport{CellCount: 4 * cells},
		Target: analysis.ErrorReport{
			L2Error:          l2,
			LinfError:        3 * l2,
			EffectiveSpacing: analysis.EffectiveSpacing(cells),
			CellCount:        cells,
		},
		Conservation: analysis.NewConservationReport(1, 1+1e-15),
	})
	r.Created = created
	return r
}

func TestLedgerRecordAndQuery(t *testing.T) {
	l, err := Open(":memory:")
	require.NoError(t, err)
	defer l.Close()

	t0 := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	id, err := l.Record(mappingRun("study", 1000, 1e-2, t0))
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	assert.NoError(t, err)
	_, err = l.Record(mappingRun("study", 8000, 2.5e-3, t0.Add(time.Minute)))
	require.NoError(t, err)
	_, err = l.Record(mappingRun("other", 64, 1, t0.Add(-time.Hour)))
	require.NoError(t, err)

	runs, err := l.Runs("study")
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, id, runs[0].ID)
	assert.True(t, t0.Equal(runs[0].Created))
	assert.Equal(t, "SINUSOID_2D", runs[0].Kind)
	assert.Equal(t, "CONSERVATIVE", runs[0].Method)
	assert.Equal(t, 0, runs[0].Cycles)
	assert.Equal(t, 1e-2, runs[0].Target.L2Error)
	assert.Equal(t, 3e-2, runs[0].Target.LinfError)
	assert.InDelta(t, 0.1, runs[0].Target.EffectiveSpacing, 1e-15)
	assert.Equal(t, 1., runs[0].Conservation.SourceIntegral)

	all, err := l.Runs("")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "other", all[0].Label)

	reports, err := l.TargetReports("study")
	require.NoError(t, err)
	orders, err := analysis.ObservedOrders(reports)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.InDelta(t, 2., orders[0].L2, 1e-12)
}

func TestLedgerDuplicateID(t *testing.T) {
	l, err := Open(":memory:")
	require.NoError(t, err)
	defer l.Close()
	r := mappingRun("dup", 10, 1, time.Now())
	r.ID = uuid.NewString()
	_, err = l.Record(r)
	require.NoError(t, err)
	_, err = l.Record(r)
	assert.Error(t, err)
}

func TestLedgerPersistsAndExports(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.db")
	l, err := Open(path)
	require.NoError(t, err)
	cyclic := FromCyclic("cyclic", "a", "b", &remap.CyclicReport{
		Cycles:       250,
		Method:       remap.CONSERVATIVE,
		Kind:         analytic.COSINE_HILL_2D,
		Conservation: analysis.NewConservationReport(2.5, 2.5),
		Target:       analysis.ErrorReport{L2Error: 0.125, CellCount: 286},
	})
	id, err := l.Record(cyclic)
	require.NoError(t, err)
	require.NoError(t, l.Close())

	l, err = Open(path)
	require.NoError(t, err)
	defer l.Close()
	var buf bytes.Buffer
	require.NoError(t, l.ExportCSV(&buf, ""))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, csvHeader, records[0])
	row := map[string]string{}
	for i, col := range csvHeader {
		row[col] = records[1][i]
	}
	assert.Equal(t, id, row["id"])
	assert.Equal(t, "250", row["cycles"])
	assert.Equal(t, "COSINE_HILL_2D", row["kind"])
	assert.Equal(t, "0.125", row["targetL2"])
	assert.Equal(t, "286", row["targetCells"])
	assert.Equal(t, "0", row["drift"])
}

func TestLedgerRunsInCreationOrder(t *testing.T) {
	l, err := Open(":memory:")
	require.NoError(t, err)
	defer l.Close()
	t0 := time.Date(2024, 3, 1, 12, 0, 5, 0, time.UTC)
	// Recorded out of order, with fractional seconds of different lengths
	for _, r := range []struct {
		id      string
		created time.Time
	}{
		{"c", t0.Add(120 * time.Millisecond)},
		{"a", t0},
		{"b", t0.Add(100 * time.Millisecond)},
		{"d", t0.Add(time.Second)},
	} {
		run := mappingRun("order", 64, 0.1, r.created)
		run.ID = r.id
		_, err = l.Record(run)
		require.NoError(t, err)
	}
	runs, err := l.Runs("order")
	require.NoError(t, err)
	var ids []string
	for _, r := range runs {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids)
	assert.True(t, runs[2].Created.Equal(t0.Add(120*time.Millisecond)))
}
