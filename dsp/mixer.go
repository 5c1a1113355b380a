package dsp

// DenoiseMixerParameters selects the reconstruction mode.
type DenoiseMixerParameters struct {
	ResidualListen bool
}

// DenoiseMixer reconstructs the output packed spectrum from the input
// packed spectrum and a gain map. Whitening is applied upstream by
// NoiseFloorManager; the mixer itself performs no second whitening pass.
type DenoiseMixer struct {
	fftSize int
}

func NewDenoiseMixer(fftSize int) *DenoiseMixer {
	return &DenoiseMixer{fftSize: fftSize}
}

// Run writes out[k] = in[k]*gain[k] (normal) or in[k]*(1-gain[k])
// (residual listen) across the full fftSize buffer, so both the real and
// the mirrored-imaginary halves are scaled identically.
func (m *DenoiseMixer) Run(out, in, gain []float64, params DenoiseMixerParameters) {
	if params.ResidualListen {
		for k := 0; k < m.fftSize; k++ {
			out[k] = in[k] * (1 - gain[k])
		}
		return
	}
	for k := 0; k < m.fftSize; k++ {
		out[k] = in[k] * gain[k]
	}
}
