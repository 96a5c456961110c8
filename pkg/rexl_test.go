package rexl

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile(t *testing.T) {
	x, err := Compile("age>=18&exists( flags )")
	require.NoError(t, err)
	assert.Equal(t, "age >= 18 & exists(flags)", x.String())
	assert.Equal(t, "age>=18&exists( flags )", x.Source())

	typ, err := x.Validate(testTypes)
	require.NoError(t, err)
	assert.Equal(t, TypeOf(Boolean), typ)

	v, err := x.Evaluate(testValues(40))
	require.NoError(t, err)
	assert.Equal(t, NewBoolean(true), v)

	_, err = Compile("age >=")
	assert.Error(t, err)

	assert.Panics(t, func() { MustCompile("(") })
}

func TestWithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, err := MustCompile("person.name = 'Ann' | nope").Evaluate(testValues(40), WithLogger(logger))
	require.Error(t, err)

	out := buf.String()
	assert.Contains(t, out, "identifier resolved")
	assert.Contains(t, out, "path=person.name")
	assert.Contains(t, out, "identifier resolution failed")
	assert.Contains(t, out, "stage=evaluator")
}
