package devicedata

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const wideTable = `# name        lanes        alias  index  speed   fec  role  core  core_port
Ethernet0     0,1,2,3      Eth0   0      100000  rs   Ext   0     1
Ethernet4     4,5,6,7      Eth1   1      100000  rs   Ext   0     2
`

const narrowTable = `# name lanes alias index
Ethernet0 10 Eth0 0
Ethernet4 11 Eth1 1
`

type tree struct {
	root string
	cfg  *Config
}

func newTree(t *testing.T) *tree {
	t.Helper()
	root := t.TempDir()

	cfg := DefaultConfig()
	cfg.DeviceDir = filepath.Join(root, "device")
	cfg.OutputDir = filepath.Join(root, "device_output")
	cfg.TemplatesDir = filepath.Join(root, "templates")

	tr := &tree{root: root, cfg: cfg}
	tr.write(t, "templates/sai.vs_profile", "SAI_VS_SWITCH_TYPE=SAI_VS_SWITCH_TYPE_BCM56850\n")
	tr.write(t, "templates/fabriclanemap_vs.ini", "fabric\n")
	tr.write(t, "templates/pai.vs_profile", "pai\n")

	tr.write(t, "device/arista/x86_64-arista_7050_qx32/Arista-7050-QX32/port_config.ini", wideTable)
	tr.write(t, "device/arista/x86_64-arista_7050_qx32/Arista-7050-QX32/context_config.json", "{}")
	tr.write(t, "device/arista/x86_64-arista_7050_qx32/plugins/sfputil.py", "")
	tr.write(t, "device/arista/x86_64-arista_7050_qx32/asic.conf", "NUM_ASIC=1\n")
	tr.write(t, "device/arista/x86_64-arista_7050_qx32/platform_env.conf", "usemsi=1\n")

	tr.write(t, "device/celestica/x86_64-cel_e1031-r0/Celestica-E1031-T48S4/port_config.ini", narrowTable)
	// Same name as the arista SKU, must not override its derived data.
	tr.write(t, "device/celestica/x86_64-cel_e1031-r0/Arista-7050-QX32/port_config.ini", narrowTable)

	tr.write(t, "device/mellanox/x86_64-mlnx_msn2700_simx-r0/ACS-MSN2700/sai.profile", "SAI_INIT_CONFIG_FILE=/usr/share/sai_2700.xml\n")
	tr.write(t, "device/mellanox/x86_64-mlnx_msn2700_simx-r0/ACS-MSN2700/port_config.ini", narrowTable)

	tr.write(t, "device/nokia/x86_64-nokia_ixr7250e_36x400g-r0/chassisdb.conf", "start_chassis_db=1\n")
	tr.write(t, "device/nokia/x86_64-nokia_ixr7250e_36x400g-r0/Nokia-IXR7250E-36x400G/0/port_config.ini", wideTable)
	tr.write(t, "device/nokia/x86_64-nokia_ixr7250e_36x400g-r0/Nokia-IXR7250E-36x400G/1/port_config.ini", wideTable)
	tr.write(t, "device/nokia/x86_64-nokia_ixr7250e_36x400g-r0/Nokia-IXR7250E-36x400G/1/context_config.json", "{}")

	tr.write(t, "device/virtual/x86_64-kvm_x86_64-r0/Force10-S6000/port_config.ini", narrowTable)
	tr.write(t, "device/virtual/x86_64-kvm_x86_64-r0/Force10-S6000/lanemap.ini", "eth1:25,26,27,28\n")

	return tr
}

func (m *tree) write(t *testing.T, rel string, content string) {
	t.Helper()
	path := filepath.Join(m.root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func (m *tree) read(t *testing.T, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(m.cfg.OutputDir, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

func (m *tree) missing(t *testing.T, rel string) {
	t.Helper()
	require.NoFileExists(t, filepath.Join(m.cfg.OutputDir, filepath.FromSlash(rel)))
}

func (m *tree) run(t *testing.T) *Report {
	t.Helper()
	gen, err := NewGenerator(m.cfg, WithLog(zaptest.NewLogger(t).Sugar()))
	require.NoError(t, err)

	report, err := gen.Run(context.Background())
	require.NoError(t, err)
	return report
}

func TestGenerate(t *testing.T) {
	tr := newTree(t)
	report := tr.run(t)

	require.Equal(t, 5, report.Platforms)
	require.Equal(t, 6, report.HwSkus)
	require.Equal(t, 4, report.Synthesized)
	require.Equal(t, 2, report.Refreshed)
	require.Empty(t, report.Marked)
	require.Positive(t, report.BytesCopied.Bytes())

	// Flattened platforms keep everything, code directories included.
	require.Equal(t, wideTable, tr.read(t, "x86_64-arista_7050_qx32/Arista-7050-QX32/port_config.ini"))
	require.Equal(t, "usemsi=1\n", tr.read(t, "x86_64-arista_7050_qx32/platform_env.conf"))
	require.Equal(t, "", tr.read(t, "x86_64-arista_7050_qx32/plugins/sfputil.py"))
	tr.missing(t, "arista")

	require.Equal(t, "vs\n", tr.read(t, "x86_64-kvm_x86_64-r0/platform_asic"))

	vs := "x86_64-kvm_x86_64-r0/"

	// Single ASIC SKU.
	require.Equal(t, "eth1:0,1,2,3\neth2:4,5,6,7\n", tr.read(t, vs+"Arista-7050-QX32/lanemap.ini"))
	require.Equal(t, "eth1:0,1\neth2:0,2\n", tr.read(t, vs+"Arista-7050-QX32/coreportindexmap.ini"))
	require.Equal(t, "NUM_ASIC=1\n", tr.read(t, vs+"Arista-7050-QX32/asic.conf"))
	require.Equal(t, "pai\n", tr.read(t, vs+"Arista-7050-QX32/pai.profile"))
	tr.missing(t, vs+"Arista-7050-QX32/context_config.json")
	tr.missing(t, vs+"plugins")

	// Narrow table.
	require.Equal(t, "eth1:10\neth2:11\n", tr.read(t, vs+"Celestica-E1031-T48S4/lanemap.ini"))
	tr.missing(t, vs+"Celestica-E1031-T48S4/coreportindexmap.ini")

	// Chassis line card with two ASICs.
	nokia := vs + "Nokia-IXR7250E-36x400G/"
	require.Equal(t, "eth2:0,1,2,3\neth3:4,5,6,7\nCpu0:999\n", tr.read(t, nokia+"0/lanemap.ini"))
	require.Equal(t, "eth5:0,1,2,3\neth6:4,5,6,7\nCpu0:999\n", tr.read(t, nokia+"1/lanemap.ini"))
	require.Equal(t, "eth5:0,1\neth6:0,2\nCpu0:0,0\n", tr.read(t, nokia+"1/coreportindexmap.ini"))
	require.Equal(t, "SAI_VS_SWITCH_TYPE=SAI_VS_SWITCH_TYPE_BCM56850\n", tr.read(t, nokia+"1/sai.profile"))
	tr.missing(t, nokia+"1/pai.profile")
	tr.missing(t, nokia+"1/context_config.json")
	tr.missing(t, nokia+"lanemap.ini")

	// Existing virtual switch SKU is only refreshed.
	require.Equal(t, "eth1:25,26,27,28\n", tr.read(t, vs+"Force10-S6000/lanemap.ini"))
	require.Equal(t, "pai\n", tr.read(t, vs+"Force10-S6000/pai.profile"))

	// Simx profiles are untouched outside of the mellanox platform.
	require.Equal(t,
		"SAI_INIT_CONFIG_FILE=/usr/share/sai_2700.xml\n",
		tr.read(t, "x86_64-mlnx_msn2700_simx-r0/ACS-MSN2700/sai.profile"),
	)
}

func TestGenerateRerun(t *testing.T) {
	tr := newTree(t)
	tr.run(t)

	derived := []string{
		"x86_64-kvm_x86_64-r0/Arista-7050-QX32/lanemap.ini",
		"x86_64-kvm_x86_64-r0/Arista-7050-QX32/coreportindexmap.ini",
		"x86_64-kvm_x86_64-r0/Nokia-IXR7250E-36x400G/0/lanemap.ini",
		"x86_64-kvm_x86_64-r0/Nokia-IXR7250E-36x400G/1/coreportindexmap.ini",
	}
	before := map[string]string{}
	for _, rel := range derived {
		before[rel] = tr.read(t, rel)
	}

	report := tr.run(t)
	require.Zero(t, report.Synthesized)
	require.Equal(t, 6, report.Refreshed)

	for _, rel := range derived {
		require.Equal(t, before[rel], tr.read(t, rel), rel)
	}
}

func TestGenerateMellanox(t *testing.T) {
	tr := newTree(t)
	tr.cfg.Platform = "mellanox"

	report := tr.run(t)
	require.Equal(t, []string{"x86_64-mlnx_msn2700_simx-r0/ACS-MSN2700/sai.profile"}, report.Marked)

	require.Equal(t, "mellanox\n", tr.read(t, "x86_64-kvm_x86_64-r0/platform_asic"))
	require.Equal(t,
		"SAI_INIT_CONFIG_FILE=/usr/share/sai_2700.xml\nSAI_KEY_IS_SIMX=1\n",
		tr.read(t, "x86_64-mlnx_msn2700_simx-r0/ACS-MSN2700/sai.profile"),
	)
	// The virtual switch copy is synthesized after marking.
	require.Equal(t,
		"SAI_VS_SWITCH_TYPE=SAI_VS_SWITCH_TYPE_BCM56850\n",
		tr.read(t, "x86_64-kvm_x86_64-r0/ACS-MSN2700/sai.profile"),
	)

	// Flattening overwrites the profile from the source, marking it again
	// must leave a single key.
	report = tr.run(t)
	require.Len(t, report.Marked, 1)
	require.Equal(t,
		"SAI_INIT_CONFIG_FILE=/usr/share/sai_2700.xml\nSAI_KEY_IS_SIMX=1\n",
		tr.read(t, "x86_64-mlnx_msn2700_simx-r0/ACS-MSN2700/sai.profile"),
	)
}

func TestGenerateCancelled(t *testing.T) {
	tr := newTree(t)

	gen, err := NewGenerator(tr.cfg, WithLog(zaptest.NewLogger(t).Sugar()))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = gen.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.NoDirExists(t, filepath.Join(tr.cfg.OutputDir, "x86_64-arista_7050_qx32"))
}

func TestGenerateMissingDeviceDir(t *testing.T) {
	tr := newTree(t)
	tr.cfg.DeviceDir = filepath.Join(tr.root, "missing")

	gen, err := NewGenerator(tr.cfg)
	require.NoError(t, err)

	_, err = gen.Run(context.Background())
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestNewGeneratorInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Platform = ""

	_, err := NewGenerator(cfg)
	require.Error(t, err)
}
