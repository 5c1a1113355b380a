package audio

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"specgate/noise"
)

// NoiseProfileFile is the on-disk representation of a learned manual noise
// profile, letting a long-running capture session resume reduction
// without relearning. The reference engine has no persisted state; this
// is an enrichment the CLI driver exposes via --save-profile/--load-profile.
type NoiseProfileFile struct {
	RealBins int                  `yaml:"real_bins"`
	Modes    []NoiseProfileModeYAML `yaml:"modes"`
}

// NoiseProfileModeYAML holds one learned mode's values and update count.
type NoiseProfileModeYAML struct {
	Mode           noise.Mode `yaml:"mode"`
	BlocksAveraged int        `yaml:"blocks_averaged"`
	Values         []float64  `yaml:"values"`
}

// noiseProfileSource is the subset of the Manual and TwoD processors'
// surface needed to read out a learned profile for persistence.
type noiseProfileSource interface {
	GetNoiseProfileSize() int
	GetNoiseProfileForMode(mode noise.Mode) ([]float64, error)
	NoiseProfileAvailableForMode(mode noise.Mode) bool
	GetNoiseProfileBlocksAveragedForMode(mode noise.Mode) int
}

// noiseProfileSink is the subset needed to load a persisted profile back
// into a processor.
type noiseProfileSink interface {
	LoadNoiseProfileForMode(mode noise.Mode, values []float64, blocksAveraged int) error
}

var allModes = []noise.Mode{noise.RollingMean, noise.Median, noise.Max}

// SaveNoiseProfile writes every available profile mode of src to path as
// YAML.
func SaveNoiseProfile(path string, src noiseProfileSource) error {
	file := NoiseProfileFile{RealBins: src.GetNoiseProfileSize()}
	for _, mode := range allModes {
		if !src.NoiseProfileAvailableForMode(mode) {
			continue
		}
		values, err := src.GetNoiseProfileForMode(mode)
		if err != nil {
			return fmt.Errorf("audio: read noise profile mode %d: %w", mode, err)
		}
		cp := make([]float64, len(values))
		copy(cp, values)
		file.Modes = append(file.Modes, NoiseProfileModeYAML{
			Mode:           mode,
			BlocksAveraged: src.GetNoiseProfileBlocksAveragedForMode(mode),
			Values:         cp,
		})
	}

	data, err := yaml.Marshal(&file)
	if err != nil {
		return fmt.Errorf("audio: marshal noise profile: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("audio: write noise profile %s: %w", path, err)
	}
	return nil
}

// LoadNoiseProfile reads path and loads every mode it contains into dst.
func LoadNoiseProfile(path string, dst noiseProfileSink) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("audio: read noise profile %s: %w", path, err)
	}

	var file NoiseProfileFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("audio: unmarshal noise profile: %w", err)
	}

	for _, m := range file.Modes {
		if len(m.Values) != file.RealBins {
			return fmt.Errorf("audio: noise profile mode %d has %d values, want %d", m.Mode, len(m.Values), file.RealBins)
		}
		if err := dst.LoadNoiseProfileForMode(m.Mode, m.Values, m.BlocksAveraged); err != nil {
			return fmt.Errorf("audio: load noise profile mode %d: %w", m.Mode, err)
		}
	}
	return nil
}
