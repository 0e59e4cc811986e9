package results

import (
	"database/sql"
	_ "embed"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/notargets/gomapfields/analysis"
	"github.com/notargets/gomapfields/remap"
)

//go:embed schema.sql
var schemaSQL string

// Run is one recorded mapping test. Cycles is zero for a single mapping.
type Run struct {
	ID                     string
	Label                  string
	Created                time.Time
	Kind                   string
	Method                 string
	Cycles                 int
	SourceMesh, TargetMesh string
	Source, Target         analysis.ErrorReport
	Conservation           analysis.ConservationReport
}

func FromMapping(label, sourceMesh, targetMesh string, rpt *remap.MappingReport) Run {
	return Run{
		Label:        label,
		Kind:         rpt.Kind.String(),
		Method:       rpt.Method.String(),
		SourceMesh:   sourceMesh,
		TargetMesh:   targetMesh,
		Source:       rpt.Source,
		Target:       rpt.Target,
		Conservation: rpt.Conservation,
	}
}

func FromCyclic(label, sourceMesh, targetMesh string, rpt *remap.CyclicReport) Run {
	return Run{
		Label:        label,
		Kind:         rpt.Kind.String(),
		Method:       rpt.Method.String(),
		Cycles:       rpt.Cycles,
		SourceMesh:   sourceMesh,
		TargetMesh:   targetMesh,
		Source:       rpt.Source,
		Target:       rpt.Target,
		Conservation: rpt.Conservation,
	}
}

// Ledger keeps the error and conservation reports of mapping runs in a SQLite database
type Ledger struct {
	db *sql.DB
}

// Open creates or opens the ledger at path. ":memory:" gives a private in-memory ledger.
func Open(path string) (l *Ledger, err error) {
	var db *sql.DB
	if db, err = sql.Open("sqlite", path); err != nil {
		return nil, fmt.Errorf("results: opening %s: %w", path, err)
	}
	// One connection, so an in-memory database is shared by every statement
	db.SetMaxOpenConns(1)
	if _, err = db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("results: creating schema in %s: %w", path, err)
	}
	return &Ledger{db: db}, nil
}

func (l *Ledger) Close() error {
	return l.db.Close()
}

// createdLayout is fixed width so that the text order of the created column is time order
const createdLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Record stores r, assigning an ID and creation time when they are unset
func (l *Ledger) Record(r Run) (id string, err error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Created.IsZero() {
		r.Created = time.Now()
	}
	_, err = l.db.Exec(`INSERT INTO runs (id, label, created, kind, method, cycles,
		source_mesh, target_mesh, source_cells, target_cells,
		source_l2, source_linf, target_l2, target_linf,
		source_integral, target_integral, drift)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Label, r.Created.UTC().Format(createdLayout), r.Kind, r.Method, r.Cycles,
		r.SourceMesh, r.TargetMesh, r.Source.CellCount, r.Target.CellCount,
		r.Source.L2Error, r.Source.LinfError, r.Target.L2Error, r.Target.LinfError,
		r.Conservation.SourceIntegral, r.Conservation.TargetIntegral, r.Conservation.AbsoluteDrift)
	if err != nil {
		return "", fmt.Errorf("results: recording run %s: %w", r.ID, err)
	}
	return r.ID, nil
}

// Runs returns the runs recorded under label in the order they were created. An empty label returns every run.
func (l *Ledger) Runs(label string) (runs []Run, err error) {
	var rows *sql.Rows
	rows, err = l.db.Query(`SELECT id, label, created, kind, method, cycles,
		source_mesh, target_mesh, source_cells, target_cells,
		source_l2, source_linf, target_l2, target_linf,
		source_integral, target_integral, drift
		FROM runs WHERE ? = '' OR label = ? ORDER BY created, rowid`, label, label)
	if err != nil {
		return nil, fmt.Errorf("results: querying runs: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			r       Run
			created string
		)
		if err = rows.Scan(&r.ID, &r.Label, &created, &r.Kind, &r.Method, &r.Cycles,
			&r.SourceMesh, &r.TargetMesh, &r.Source.CellCount, &r.Target.CellCount,
			&r.Source.L2Error, &r.Source.LinfError, &r.Target.L2Error, &r.Target.LinfError,
			&r.Conservation.SourceIntegral, &r.Conservation.TargetIntegral, &r.Conservation.AbsoluteDrift); err != nil {
			return nil, fmt.Errorf("results: reading run: %w", err)
		}
		if r.Created, err = time.Parse(createdLayout, created); err != nil {
			return nil, fmt.Errorf("results: run %s: %w", r.ID, err)
		}
		for _, er := range []*analysis.ErrorReport{&r.Source, &r.Target} {
			if er.CellCount > 0 {
				er.EffectiveSpacing = analysis.EffectiveSpacing(er.CellCount)
			}
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

var csvHeader = []string{
	"id", "label", "created", "kind", "method", "cycles",
	"sourceMesh", "targetMesh", "sourceCells", "targetCells",
	"sourceL2", "sourceLinf", "targetL2", "targetLinf", "targetDx",
	"sourceIntegral", "targetIntegral", "drift",
}

// ExportCSV writes the runs under label, or all runs when label is empty, as CSV with a header row
func (l *Ledger) ExportCSV(w io.Writer, label string) (err error) {
	var runs []Run
	if runs, err = l.Runs(label); err != nil {
		return
	}
	var (
		cw = csv.NewWriter(w)
		ff = func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	)
	if err = cw.Write(csvHeader); err != nil {
		return
	}
	for _, r := range runs {
		if err = cw.Write([]string{
			r.ID, r.Label, r.Created.UTC().Format(createdLayout), r.Kind, r.Method, strconv.Itoa(r.Cycles),
			r.SourceMesh, r.TargetMesh, strconv.Itoa(r.Source.CellCount), strconv.Itoa(r.Target.CellCount),
			ff(r.Source.L2Error), ff(r.Source.LinfError), ff(r.Target.L2Error), ff(r.Target.LinfError),
			ff(r.Target.EffectiveSpacing),
			ff(r.Conservation.SourceIntegral), ff(r.Conservation.TargetIntegral), ff(r.Conservation.AbsoluteDrift),
		}); err != nil {
			return
		}
	}
	cw.Flush()
	return cw.Error()
}

// TargetReports returns the target error reports of the runs under label, for convergence studies
func (l *Ledger) TargetReports(label string) (reports []analysis.ErrorReport, err error) {
	var runs []Run
	if runs, err = l.Runs(label); err != nil {
		return
	}
	for _, r := range runs {
		reports = append(reports, r.Target)
	}
	return
}
