package main

import (
	"bufio"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/notargets/gomapfields/analysis"
	"github.com/notargets/gomapfields/results"
)

var (
	csvFile string
	ledger  string
	label   string
)

func main() {
	csvFilePtr := flag.String("csvFile", csvFile, "CSV export of a results ledger holding a convergence study")
	ledgerPtr := flag.String("ledger", ledger, "results ledger holding a convergence study")
	labelPtr := flag.String("label", label, "only use runs recorded under this label")
	flag.Parse()
	csvFile, ledger, label = *csvFilePtr, *ledgerPtr, *labelPtr
	if len(csvFile) == 0 && len(ledger) == 0 {
		flag.Usage()
		os.Exit(1)
	}
	var (
		studies map[string]*ConvergenceStudy
		err     error
	)
	if len(ledger) != 0 {
		fmt.Printf("Input ledger: %v\n", ledger)
		studies, err = readLedger(ledger, label)
	} else {
		fmt.Printf("Input file: %v\n", csvFile)
		studies, err = readCSVFile(csvFile, label)
	}
	if err != nil {
		fmt.Printf("error: %s\n", err)
		os.Exit(1)
	}
	printStudies(os.Stdout, studies)
}

// ConvergenceStudy collects the target errors of one analytic field and method over a series of meshes
type ConvergenceStudy struct {
	title, kind, method string
	reports             []analysis.ErrorReport
}

func studyKey(title, kind, method string) string {
	return title + "/" + kind + "/" + method
}

func (cs *ConvergenceStudy) Add(cells int, l2, linf float64) {
	cs.reports = append(cs.reports, analysis.ErrorReport{
		L2Error:          l2,
		LinfError:        linf,
		EffectiveSpacing: analysis.EffectiveSpacing(cells),
		CellCount:        cells,
	})
}

func addRun(studies map[string]*ConvergenceStudy, title, kind, method string, cells int, l2, linf float64) {
	key := studyKey(title, kind, method)
	cs, ok := studies[key]
	if !ok {
		cs = &ConvergenceStudy{title: title, kind: kind, method: method}
		studies[key] = cs
	}
	cs.Add(cells, l2, linf)
}

func readLedger(fileName, label string) (studies map[string]*ConvergenceStudy, err error) {
	var l *results.Ledger
	if l, err = results.Open(fileName); err != nil {
		return
	}
	defer l.Close()
	var runs []results.Run
	if runs, err = l.Runs(label); err != nil {
		return
	}
	studies = make(map[string]*ConvergenceStudy)
	for _, r := range runs {
		if r.Cycles != 0 || r.Target.CellCount == 0 {
			continue
		}
		addRun(studies, r.Label, r.Kind, r.Method, r.Target.CellCount, r.Target.L2Error, r.Target.LinfError)
	}
	return
}

func readCSVFile(fileName, label string) (studies map[string]*ConvergenceStudy, err error) {
	var f *os.File
	if f, err = os.Open(fileName); err != nil {
		return
	}
	defer f.Close()
	return readCSV(bufio.NewReader(f), label)
}

// readCSV reads the columns written by the results ledger export, in any order
func readCSV(r io.Reader, label string) (studies map[string]*ConvergenceStudy, err error) {
	var records [][]string
	if records, err = csv.NewReader(r).ReadAll(); err != nil {
		return
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty CSV file")
	}
	col := make(map[string]int)
	for i, name := range records[0] {
		col[name] = i
	}
	for _, name := range []string{"label", "kind", "method", "cycles", "targetCells", "targetL2", "targetLinf"} {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("CSV file has no %q column", name)
		}
	}
	studies = make(map[string]*ConvergenceStudy)
	for i, rec := range records[1:] {
		if label != "" && rec[col["label"]] != label {
			continue
		}
		var (
			cells, cycles int
			l2, linf      float64
		)
		if cycles, err = strconv.Atoi(rec[col["cycles"]]); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		if cycles != 0 {
			continue
		}
		if cells, err = strconv.Atoi(rec[col["targetCells"]]); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		if l2, err = strconv.ParseFloat(rec[col["targetL2"]], 64); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		if linf, err = strconv.ParseFloat(rec[col["targetLinf"]], 64); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		addRun(studies, rec[col["label"]], rec[col["kind"]], rec[col["method"]], cells, l2, linf)
	}
	return
}

func printStudies(w io.Writer, studies map[string]*ConvergenceStudy) {
	keys := make([]string, 0, len(studies))
	for k := range studies {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		cs := studies[k]
		fmt.Fprintf(w, "Title = %s, Kind = %s, Method = %s\n", cs.title, cs.kind, cs.method)
		for _, er := range cs.reports {
			fmt.Fprintf(w, "%d, %v, %v, %v\n", er.CellCount, er.EffectiveSpacing, er.L2Error, er.LinfError)
		}
		orders, err := analysis.ObservedOrders(cs.reports)
		if err != nil {
			fmt.Fprintf(w, "no order estimate: %s\n", err)
			continue
		}
		for _, o := range orders {
			fmt.Fprintf(w, "%d -> %d cells: L2 order = %5.2f, Linf order = %5.2f\n",
				o.CoarseCells, o.FineCells, o.L2, o.Linf)
		}
	}
}
