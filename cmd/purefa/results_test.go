package main

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mvachon/purefa/internal/model"
)

func TestRenderResults(t *testing.T) {
	results := []model.TaskResult{
		{TaskID: "vol_db", Type: "volume", Status: model.StatusSuccess, Changed: true, Message: "volume db01 missing, will create (1T)", Duration: 120 * time.Millisecond},
		{TaskID: "host_esx", Type: "host", Status: model.StatusUnchanged, Message: "host esx01 already converged"},
		{TaskID: "dns", Type: "dns", Status: model.StatusFailed, Error: errors.New("remote operation update dns failed (status 500): internal error")},
	}

	var buf bytes.Buffer
	renderResults(&buf, results)

	out := buf.String()
	require.Contains(t, out, "vol_db")
	require.Contains(t, out, "unchanged")
	require.Contains(t, out, "remote operation update dns failed")
	require.Contains(t, out, "1 changed, 1 unchanged, 0 pending, 1 failed")
}

func TestRenderResultsEmpty(t *testing.T) {
	var buf bytes.Buffer
	renderResults(&buf, nil)
	require.Empty(t, buf.String())
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	cmd := newVersionCmd()
	cmd.SetOut(&buf)

	require.NoError(t, cmd.Execute())
	require.Contains(t, buf.String(), "purefa")
}

func TestRootRegistersSubcommands(t *testing.T) {
	root := newRootCmd()

	var names []string
	for _, sub := range root.Commands() {
		names = append(names, sub.Name())
	}
	require.Contains(t, names, "apply")
	require.Contains(t, names, "verify")
	require.Contains(t, names, "version")
}
