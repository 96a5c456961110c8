package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRecord = `
schema:
  age: number
  name: string
data:
  age: 40
  name: Bobby
`

func TestRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "record.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testRecord), 0o600))

	cases := []struct {
		args   []string
		code   int
		stdout string
		stderr string
	}{
		{[]string{"1 + 2"}, 0, "3\n", ""},
		{[]string{"'a'", "+", "'b'"}, 0, "'ab'\n", ""},
		{[]string{"-format", "1+2*3"}, 0, "1 + 2 * 3\n7\n", ""},
		{[]string{"-record", path, "-validate", "age >= 18 & name =~ 'bob'"}, 0, "type: Boolean\ntrue\n", ""},
		{[]string{"-record", path, "age >= 'x'"}, 1, "", "Evaluation failed: Type mismatch: Number and String"},
		{[]string{"-record", path, "-validate", "age >= 'x'"}, 1, "", "Invalid expression:"},
		{[]string{"1 +"}, 1, "", "Bad expression:"},
		{[]string{"1 # 2"}, 1, "", "1 # 2\n  ^"},
		{[]string{"-record", filepath.Join(t.TempDir(), "absent.yaml"), "1"}, 1, "", "Error: read record file"},
		{[]string{}, 2, "", "usage: rexl"},
		{[]string{"-bogus", "1"}, 2, "", "flag provided but not defined"},
	}

	for _, c := range cases {
		var stdout, stderr bytes.Buffer
		code := run(c.args, &stdout, &stderr)

		assert.Equal(t, c.code, code, "%v", c.args)
		assert.Equal(t, c.stdout, stdout.String(), "%v", c.args)
		assert.Contains(t, stderr.String(), c.stderr, "%v", c.args)
	}
}

func TestRunVerbose(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"-v", "1 + 2"}, &stdout, &stderr)

	assert.Equal(t, 0, code)
	assert.Equal(t, "3\n", stdout.String())
	assert.Contains(t, stderr.String(), "phase completed")
}

func TestRunTelemetry(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"-trace", "-metrics", "-validate", "1 + 2"}, &stdout, &stderr)

	assert.Equal(t, 0, code)
	assert.Equal(t, "type: Number\n3\n", stdout.String())
	assert.Contains(t, stderr.String(), "span rexl.parse Ok")
	assert.Contains(t, stderr.String(), "span rexl.evaluate Ok")
	assert.Contains(t, stderr.String(), "metric rexl.phase.runs phase=validate 1\n")

	stdout.Reset()
	stderr.Reset()
	code = run([]string{"-trace", "1 +"}, &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "Bad expression:")
	assert.Contains(t, stderr.String(), "span rexl.parse Error")
	assert.NotContains(t, stderr.String(), "metric ")
}
