package InputParameters

import (
	"fmt"
	"io"
	"sort"

	"github.com/ghodss/yaml"

	"github.com/notargets/gomapfields/analysis"
	"github.com/notargets/gomapfields/analytic"
	"github.com/notargets/gomapfields/remap"
)

// Parameters obtained from the YAML input file
type RemapParameters struct {
	Title       string              `json:"Title"`
	SourceCase  string              `json:"SourceCase"`
	TargetCase  string              `json:"TargetCase"`
	Time        float64             `json:"Time"`
	Method      string              `json:"Method"`
	Threads     int                 `json:"Threads"`
	ForceRecalc bool                `json:"ForceRecalc"`
	WriteAddr   bool                `json:"WriteAddr"`
	TestOnly    bool                `json:"TestOnly"`
	TestKind    string              `json:"TestKind"`   // field used for the single mapping error test
	CyclicKind  string              `json:"CyclicKind"` // field used for the cyclic remap of 2D meshes
	Cycles      int                 `json:"Cycles"`
	Ledger      string              `json:"Ledger"` // SQLite results file, empty for none
	Label       string              `json:"Label"`
	Tolerances  analysis.Tolerances `json:"Tolerances"` // reported against, never enforced
}

func NewRemapParameters() *RemapParameters {
	return &RemapParameters{
		Method:     remap.CONSERVATIVE.String(),
		Threads:    1,
		TestKind:   analytic.LINEAR.String(),
		CyclicKind: analytic.COSINE_HILL_2D.String(),
		Cycles:     250,
	}
}

func (ip *RemapParameters) Parse(data []byte) error {
	return yaml.Unmarshal(data, ip)
}

// Validate resolves the enumerated parameters, failing on the first unknown value
func (ip *RemapParameters) Validate() (method remap.Method, testKind, cyclicKind analytic.Kind, err error) {
	if method, err = remap.ParseMethod(ip.Method); err != nil {
		return
	}
	if testKind, err = analytic.ParseKind(ip.TestKind); err != nil {
		return
	}
	if cyclicKind, err = analytic.ParseKind(ip.CyclicKind); err != nil {
		return
	}
	if ip.Cycles < 1 {
		err = fmt.Errorf("Cycles must be at least 1, have %d", ip.Cycles)
		return
	}
	if ip.Threads < 1 {
		err = fmt.Errorf("Threads must be at least 1, have %d", ip.Threads)
		return
	}
	err = ip.Tolerances.Validate()
	return
}

func (ip *RemapParameters) Print(w io.Writer) {
	fmt.Fprintf(w, "\"%s\"\t\t= Title\n", ip.Title)
	fmt.Fprintf(w, "[%s]\t\t= Source Case\n", ip.SourceCase)
	fmt.Fprintf(w, "[%s]\t\t= Target Case\n", ip.TargetCase)
	fmt.Fprintf(w, "%8.5f\t\t= Time\n", ip.Time)
	fmt.Fprintf(w, "[%s]\t= Method\n", ip.Method)
	fmt.Fprintf(w, "[%d]\t\t\t\t= Threads\n", ip.Threads)
	if ip.TestOnly {
		fmt.Fprintf(w, "[%s]\t\t\t= Test Kind\n", ip.TestKind)
		fmt.Fprintf(w, "[%s]\t= Cyclic Kind\n", ip.CyclicKind)
		fmt.Fprintf(w, "[%d]\t\t\t\t= Cycles\n", ip.Cycles)
	}
	keys := make([]string, len(ip.Tolerances))
	i := 0
	for k := range ip.Tolerances {
		keys[i] = k
		i++
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(w, "Tolerances[%s] = %v\n", key, ip.Tolerances[key])
	}
}
