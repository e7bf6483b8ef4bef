package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestEncodeCommand(t *testing.T) {
	out, err := run(t, `{"id":"E1"}`, "encode", "--op", "d")
	require.NoError(t, err)
	assert.Equal(t, "_ops|id\nd|'E1'\n", out)
}

func TestDecodeCommand(t *testing.T) {
	out, err := run(t, "id|countryName\nBR|Brazil\n", "decode")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"BR","countryName":"Brazil"}]`, out)
}

func TestJobsTriggerRejectsUnknownJob(t *testing.T) {
	_, err := run(t, "", "jobs", "trigger", "mail:send", "--redis", "127.0.0.1:0")
	require.ErrorContains(t, err, "unsupported job")
}

func TestEncodeCommandRejectsArgs(t *testing.T) {
	_, err := run(t, "{}", "encode", "extra")
	require.Error(t, err)
}
