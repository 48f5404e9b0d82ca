package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func writeTemplates(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(name+"\n"), 0o644))
	}
}

func TestMaterializeFull(t *testing.T) {
	templates := t.TempDir()
	dst := t.TempDir()
	writeTemplates(t, templates,
		"sai.vs_profile",
		"fabriclanemap_vs.ini",
		"sai_mlnx.vs_profile",
		"sai_vpp.vs_profile",
		"pai.vs_profile",
	)

	m := NewMaterializer(templates, zaptest.NewLogger(t).Sugar())
	n, err := m.Materialize(dst, ModeFull)
	require.NoError(t, err)
	require.Positive(t, n)

	for _, template := range Templates {
		data, err := os.ReadFile(filepath.Join(dst, template.Target))
		require.NoError(t, err)
		require.Equal(t, template.Source+"\n", string(data))
	}
}

func TestMaterializeReduced(t *testing.T) {
	templates := t.TempDir()
	dst := t.TempDir()
	writeTemplates(t, templates,
		"sai.vs_profile",
		"fabriclanemap_vs.ini",
		"sai_mlnx.vs_profile",
		"sai_vpp.vs_profile",
		"pai.vs_profile",
	)

	m := NewMaterializer(templates, zaptest.NewLogger(t).Sugar())
	_, err := m.Materialize(dst, ModeReduced)
	require.NoError(t, err)

	require.FileExists(t, filepath.Join(dst, "sai.profile"))
	require.FileExists(t, filepath.Join(dst, "fabriclanemap.ini"))
	require.NoFileExists(t, filepath.Join(dst, "sai_mlnx.profile"))
	require.NoFileExists(t, filepath.Join(dst, "sai_vpp.profile"))
	require.NoFileExists(t, filepath.Join(dst, "pai.profile"))
}

func TestMaterializeMissingTemplates(t *testing.T) {
	templates := t.TempDir()
	dst := t.TempDir()
	writeTemplates(t, templates, "sai.vs_profile")

	m := NewMaterializer(templates, zaptest.NewLogger(t).Sugar())
	n, err := m.Materialize(dst, ModeFull)
	require.NoError(t, err)
	require.Equal(t, int64(len("sai.vs_profile\n")), n)

	entries, err := os.ReadDir(dst)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "sai.profile", entries[0].Name())
}

func TestMaterializeOverwrites(t *testing.T) {
	templates := t.TempDir()
	dst := t.TempDir()
	writeTemplates(t, templates, "sai.vs_profile")
	require.NoError(t, os.WriteFile(filepath.Join(dst, "sai.profile"), []byte("stale"), 0o644))

	m := NewMaterializer(templates, zaptest.NewLogger(t).Sugar())
	_, err := m.Materialize(dst, ModeReduced)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dst, "sai.profile"))
	require.NoError(t, err)
	require.Equal(t, "sai.vs_profile\n", string(data))
}

func TestMaterializeMissingDestination(t *testing.T) {
	templates := t.TempDir()
	writeTemplates(t, templates, "sai.vs_profile")

	m := NewMaterializer(templates, zaptest.NewLogger(t).Sugar())
	_, err := m.Materialize(filepath.Join(t.TempDir(), "missing"), ModeFull)
	require.Error(t, err)
}

func TestModeString(t *testing.T) {
	require.Equal(t, "full", ModeFull.String())
	require.Equal(t, "reduced", ModeReduced.String())
	require.Equal(t, "Mode(7)", Mode(7).String())
}
