package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCommand()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestInitStatusAndJournal(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "sale.toml")
	dataDir := filepath.Join(dir, "data")

	_, err := run(t, "config", "example", cfgPath)
	require.NoError(t, err)

	_, err = run(t, "--config", cfgPath, "config", "validate")
	require.NoError(t, err)

	_, err = run(t, "--config", cfgPath, "--data", dataDir, "init")
	require.NoError(t, err)

	_, err = run(t, "--config", cfgPath, "--data", dataDir, "init")
	require.Error(t, err)
	require.Contains(t, err.Error(), "already applied")

	out, err := run(t, "--config", cfgPath, "--data", dataDir, "status")
	require.NoError(t, err)
	var status map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	require.Contains(t, status, "Stages")

	out, err = run(t, "--config", cfgPath, "--data", dataDir, "role", "check", "owner", "0x00000000000000000000000000000000000000f1")
	require.NoError(t, err)
	require.Contains(t, out, `"held": true`)

	out, err = run(t, "--config", cfgPath, "--data", dataDir, "journal", "--type", "access.role.granted")
	require.NoError(t, err)
	var entries []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.NotEmpty(t, entries)
}

func TestCommandsRequireCaller(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "sale.yaml")
	_, err := run(t, "config", "example", cfgPath)
	require.NoError(t, err)

	_, err = run(t, "--config", cfgPath, "--data", filepath.Join(dir, "data"), "rate", "set", "2e18")
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "--from"), err.Error())
}

func TestMissingConfig(t *testing.T) {
	_, err := run(t, "status")
	require.Error(t, err)
	require.Contains(t, err.Error(), "--config")
}
