package project_test

import (
	"path/filepath"
	"testing"

	"github.com/aretw0/waypoint/pkg/project"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHash_Stable(t *testing.T) {
	h1 := project.Hash("/tmp/project")
	h2 := project.Hash("/tmp/project")
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 8)
	assert.NotEqual(t, h1, project.Hash("/tmp/other"))
}

func TestNewHandle_Absolute(t *testing.T) {
	dir := t.TempDir()
	h, err := project.NewHandle(dir)
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(h.Root))
	assert.Equal(t, project.Hash(h.Root), h.Hash)
}

func TestLayout(t *testing.T) {
	h := project.Handle{Root: "/work/app", Hash: "abcd1234"}

	l := project.NewLayout(h, "")
	assert.Equal(t, filepath.FromSlash("/work/app/.waypoint"), l.Base)
	assert.Equal(t, filepath.FromSlash("/work/app/.waypoint/sessions/abcd1234/state.json"), l.StatePath())
	assert.Equal(t, filepath.FromSlash("/work/app/.waypoint/sessions/abcd1234/state.lock"), l.LockPath())
	assert.Equal(t, filepath.FromSlash("/work/app/.waypoint/sessions/abcd1234/contracts"), l.ContractsDir())
	assert.Equal(t, filepath.FromSlash("/work/app/.waypoint/knowledge/abcd1234/knowledge.yaml"), l.KnowledgePath())
	assert.Equal(t, filepath.FromSlash("/work/app/.waypoint/metrics/abcd1234.prom"), l.MetricsPath())

	abs := project.NewLayout(h, "/var/lib/waypoint")
	assert.Equal(t, filepath.FromSlash("/var/lib/waypoint/sessions/abcd1234"), abs.SessionDir())
}
