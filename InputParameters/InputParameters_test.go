package InputParameters

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/gomapfields/analysis"
	"github.com/notargets/gomapfields/analytic"
	"github.com/notargets/gomapfields/remap"
)

func TestRemapParameters(t *testing.T) {
	fileInput := []byte(`
Title: Hill study
SourceCase: cases/fine
TargetCase: cases/coarse
Method: conservative_first_order
Threads: 4
TestOnly: true
TestKind: SINUSOID_2D
Cycles: 10
Tolerances:
  drift: 1.0e-6
  linf: 0.01
`)
	ip := NewRemapParameters()
	require.NoError(t, ip.Parse(fileInput))
	assert.Equal(t, "Hill study", ip.Title)
	assert.Equal(t, 4, ip.Threads)
	assert.Equal(t, 10, ip.Cycles)
	assert.Equal(t, 1e-6, ip.Tolerances["drift"])
	// Unset entries keep their defaults
	assert.Equal(t, "COSINE_HILL_2D", ip.CyclicKind)

	method, testKind, cyclicKind, err := ip.Validate()
	require.NoError(t, err)
	assert.Equal(t, remap.CONSERVATIVE_FIRST_ORDER, method)
	assert.Equal(t, analytic.SINUSOID_2D, testKind)
	assert.Equal(t, analytic.COSINE_HILL_2D, cyclicKind)

	var buf bytes.Buffer
	ip.Print(&buf)
	assert.Contains(t, buf.String(), "= Cycles")
	assert.Contains(t, buf.String(), "Tolerances[drift] = 1e-06")
}

func TestRemapParametersValidate(t *testing.T) {
	testCases := []struct {
		name   string
		modify func(ip *RemapParameters)
		errMsg string
	}{
		{"method", func(ip *RemapParameters) { ip.Method = "BILINEAR" }, "BILINEAR"},
		{"test kind", func(ip *RemapParameters) { ip.TestKind = "QUADRATIC" }, "QUADRATIC"},
		{"cyclic kind", func(ip *RemapParameters) { ip.CyclicKind = "" }, "analytic.ParseKind"},
		{"cycles", func(ip *RemapParameters) { ip.Cycles = 0 }, "Cycles"},
		{"threads", func(ip *RemapParameters) { ip.Threads = -2 }, "Threads"},
		{"tolerance", func(ip *RemapParameters) { ip.Tolerances = analysis.Tolerances{"l1": 1} }, "l1"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ip := NewRemapParameters()
			tc.modify(ip)
			_, _, _, err := ip.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errMsg)
		})
	}
}
