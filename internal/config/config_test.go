package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := parse("")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.False(t, cfg.Quiet)
	assert.Nil(t, cfg.WorkspaceRoots)
	assert.Equal(t, DefaultMaxCandidates, cfg.MaxCandidates)
}

func TestParse_Quiet(t *testing.T) {
	cfg, err := parse(`quiet true`)
	require.NoError(t, err)
	assert.True(t, cfg.Quiet)
}

func TestParse_MaxCandidates(t *testing.T) {
	cfg, err := parse(`max-candidates 500`)
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.MaxCandidates)
}

func TestParse_MaxCandidates_IgnoresNonPositive(t *testing.T) {
	cfg, err := parse(`max-candidates 0`)
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxCandidates, cfg.MaxCandidates)
}

func TestParse_WorkspaceRoots(t *testing.T) {
	cfg, err := parse(`workspace-roots "src" "test"`)
	require.NoError(t, err)
	assert.Equal(t, []string{"src", "test"}, cfg.WorkspaceRoots)
}

func TestParse_RootShorthand(t *testing.T) {
	cfg, err := parse(`root "."`)
	require.NoError(t, err)
	assert.Equal(t, []string{"."}, cfg.WorkspaceRoots)
}

func TestParse_FullConfig(t *testing.T) {
	kdlContent := `
quiet true
max-candidates 75
workspace-roots "src/main" "src/test"
`
	cfg, err := parse(kdlContent)
	require.NoError(t, err)

	assert.True(t, cfg.Quiet)
	assert.Equal(t, 75, cfg.MaxCandidates)
	assert.Equal(t, []string{"src/main", "src/test"}, cfg.WorkspaceRoots)
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxCandidates, cfg.MaxCandidates)
	assert.False(t, cfg.Quiet)
}

func TestLoad_RelativeWorkspaceRootsResolvedAgainstProjectRoot(t *testing.T) {
	dir := t.TempDir()
	kdlPath := filepath.Join(dir, ".jcore.kdl")
	require.NoError(t, os.WriteFile(kdlPath, []byte(`workspace-roots "src"`), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	require.Len(t, cfg.WorkspaceRoots, 1)
	assert.Equal(t, filepath.Clean(filepath.Join(dir, "src")), cfg.WorkspaceRoots[0])
}

func TestLoad_InvalidKDLReturnsError(t *testing.T) {
	dir := t.TempDir()
	kdlPath := filepath.Join(dir, ".jcore.kdl")
	require.NoError(t, os.WriteFile(kdlPath, []byte(`quiet "unterminated`), 0o644))

	_, err := Load(dir)
	assert.Error(t, err)
}
