package devicedata

import (
	"github.com/c2h5oh/datasize"
	"go.uber.org/zap"
)

// Report summarizes a generator run.
type Report struct {
	// Platforms is the number of platform directories flattened.
	Platforms int
	// HwSkus is the number of hardware SKUs discovered.
	HwSkus int
	// Synthesized is the number of virtual switch SKUs created.
	Synthesized int
	// Refreshed is the number of existing virtual switch SKUs whose profiles
	// were refreshed.
	Refreshed int
	// Marked lists SAI profiles marked for the simulator, relative to the
	// output directory.
	Marked []string
	// BytesCopied is the total amount of data copied into the output.
	BytesCopied datasize.ByteSize
}

// Fields returns the report as structured log fields.
func (m *Report) Fields() []any {
	return []any{
		zap.Int("platforms", m.Platforms),
		zap.Int("hwskus", m.HwSkus),
		zap.Int("synthesized", m.Synthesized),
		zap.Int("refreshed", m.Refreshed),
		zap.Int("simx_marked", len(m.Marked)),
		zap.String("copied", m.BytesCopied.HR()),
	}
}

func (m *Report) addCopied(n int64) {
	if n > 0 {
		m.BytesCopied += datasize.ByteSize(n)
	}
}
