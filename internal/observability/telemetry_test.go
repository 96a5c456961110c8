package observability

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTelemetry(t *testing.T) {
	ctx := context.Background()

	tel, err := NewTelemetry(true, true)
	require.NoError(t, err)
	require.Len(t, tel.RunnerOptions(), 2)

	r := NewRunner(tel.RunnerOptions()...)

	_, err = r.Run(ctx, "age >= 18", testTypes, testValues)
	require.NoError(t, err)

	_, err = r.Compile(ctx, "1 +")
	require.Error(t, err)

	var out bytes.Buffer
	require.NoError(t, tel.Report(ctx, &out))

	report := out.String()
	assert.Contains(t, report, "span rexl.parse Ok")
	assert.Contains(t, report, "span rexl.validate Ok")
	assert.Contains(t, report, "span rexl.evaluate Ok")
	assert.Contains(t, report, "span rexl.parse Error")
	assert.Contains(t, report, "metric rexl.phase.runs phase=parse 2\n")
	assert.Contains(t, report, "metric rexl.phase.runs phase=evaluate 1\n")
	assert.Contains(t, report, "metric rexl.phase.errors kind=parser,phase=parse 1\n")
	assert.Contains(t, report, "metric rexl.phase.latency_ms phase=validate count=1")
}

func TestTelemetryDisabled(t *testing.T) {
	tel, err := NewTelemetry(false, false)
	require.NoError(t, err)
	assert.Empty(t, tel.RunnerOptions())

	_, err = NewRunner(tel.RunnerOptions()...).Run(context.Background(), "1 + 2", nil, nil)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, tel.Report(context.Background(), &out))
	assert.Empty(t, out.String())
}
