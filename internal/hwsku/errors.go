package hwsku

import (
	"fmt"

	"github.com/blorente/sonic-buildimage/internal/walker"
)

// Step names a synthesis step.
type Step string

const (
	StepCopy        Step = "copy"
	StepAsicConf    Step = "asic-conf"
	StepProfiles    Step = "profiles"
	StepDeriveRoot  Step = "derive-root"
	StepDeriveAsics Step = "derive-asics"
)

// SynthesisError is returned when synthesizing a hardware SKU fails.
type SynthesisError struct {
	// HwSku is the source hardware SKU.
	HwSku walker.HwSku
	// Step is the step that failed.
	Step Step
	// Err is the underlying error.
	Err error
}

func (m *SynthesisError) Error() string {
	return fmt.Sprintf("hwsku %s: %s: %v", m.HwSku, m.Step, m.Err)
}

func (m *SynthesisError) Unwrap() error {
	return m.Err
}

func newSynthesisError(hwsku walker.HwSku, step Step, err error) *SynthesisError {
	return &SynthesisError{
		HwSku: hwsku,
		Step:  step,
		Err:   err,
	}
}
