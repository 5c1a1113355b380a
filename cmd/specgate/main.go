// Command specgate applies real-time spectral noise reduction to a mono
// WAV file, choosing among the manual, adaptive, and 2-D NLM processors.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"specgate/audio"
	"specgate/denoiser"
	"specgate/dsp"
	"specgate/noise"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		mode                  = pflag.StringP("mode", "m", "manual", "Denoiser: manual, adaptive, or nlm2d.")
		frameMs               = pflag.Float64P("frame-ms", "f", 20, "Analysis frame size in milliseconds.")
		reductionDB           = pflag.Float64P("reduction-db", "r", 20, "Maximum attenuation in dB (0-40).")
		smoothing             = pflag.Float64P("smoothing", "s", 0, "Time-smoothing factor, 0-1.")
		whitening             = pflag.Float64P("whitening", "w", 0, "Residual whitening factor, 0-1.")
		noiseRescale          = pflag.Float64P("noise-rescale", "n", 0, "Additive offset on the oversubtraction factor.")
		postFilterDB          = pflag.Float64P("post-filter-threshold-db", "p", 0, "Adaptive post-filter SNR threshold in dB, -10 to 10.")
		scalingType           = pflag.StringP("scaling", "c", "masking", "Noise-scaling criterion: global, band, or masking.")
		estimationMethod      = pflag.StringP("estimation-method", "e", "sppmmse", "Adaptive estimator: sppmmse, trimmedmean, or minstats.")
		adaptiveNoise         = pflag.BoolP("adaptive-noise", "a", false, "Layer an adaptive estimator on top of the manual/2-D profile.")
		residualListen        = pflag.BoolP("residual-listen", "l", false, "Output the removed residual instead of the cleaned signal.")
		learnSamples          = pflag.IntP("learn-samples", "L", 0, "Number of leading input samples to spend learning the manual noise profile before reducing.")
		reductionMode         = pflag.StringP("profile-mode", "P", "mean", "Manual profile statistic: mean, median, or max.")
		saveProfilePath       = pflag.String("save-profile", "", "Write the learned manual noise profile to this YAML file after processing.")
		loadProfilePath       = pflag.String("load-profile", "", "Load a previously saved manual noise profile before processing.")
		help                  = pflag.BoolP("help", "h", false, "Display help text.")
	)
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: specgate [flags] <input.wav> <output.wav>\n\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if *help {
		pflag.Usage()
		return 0
	}
	if pflag.NArg() != 2 {
		pflag.Usage()
		return 1
	}
	inputPath, outputPath := pflag.Arg(0), pflag.Arg(1)

	params, err := buildParameters(*reductionDB, *smoothing, *whitening, *noiseRescale, *postFilterDB,
		*scalingType, *estimationMethod, *adaptiveNoise, *residualListen, *reductionMode)
	if err != nil {
		logger.Error("invalid parameters", "error", err)
		return 1
	}

	in, err := os.Open(inputPath)
	if err != nil {
		logger.Error("open input", "error", err)
		return 1
	}
	defer in.Close()

	samples, sampleRate, err := audio.ReadWAV(in)
	if err != nil {
		logger.Error("read wav", "error", err)
		return 1
	}
	logger.Info("loaded input", "path", inputPath, "samples", len(samples), "sample_rate", sampleRate)

	out, err := process(*mode, sampleRate, *frameMs, *learnSamples, params, *loadProfilePath, *saveProfilePath, samples, logger)
	if err != nil {
		logger.Error("process", "error", err)
		return 1
	}

	outFile, err := os.Create(outputPath)
	if err != nil {
		logger.Error("create output", "error", err)
		return 1
	}
	defer outFile.Close()

	if err := audio.WriteWAV(outFile, out, sampleRate); err != nil {
		logger.Error("write wav", "error", err)
		return 1
	}
	logger.Info("wrote output", "path", outputPath, "samples", len(out))
	return 0
}

// processor is the shape-identical surface shared by Manual, Adaptive and
// TwoD that main needs to drive a whole-file pass.
type processor interface {
	LoadParameters(denoiser.Parameters) error
	Process(in, out []float64) bool
	GetLatency() int
}

// profileCapable is implemented by Manual and TwoD only.
type profileCapable interface {
	processor
	GetNoiseProfileSize() int
	GetNoiseProfileForMode(noise.Mode) ([]float64, error)
	LoadNoiseProfileForMode(noise.Mode, []float64, int) error
	ResetNoiseProfile()
	NoiseProfileAvailableForMode(noise.Mode) bool
	GetNoiseProfileBlocksAveragedForMode(noise.Mode) int
}

func process(mode string, sampleRate int, frameMs float64, learnSamples int, params denoiser.Parameters,
	loadProfilePath, saveProfilePath string, samples []float64, logger *slog.Logger) ([]float64, error) {

	var proc processor
	var profileOwner profileCapable

	switch mode {
	case "manual":
		p, err := denoiser.NewManual(sampleRate, frameMs)
		if err != nil {
			return nil, err
		}
		proc, profileOwner = p, p
	case "adaptive":
		p, err := denoiser.NewAdaptive(sampleRate, frameMs)
		if err != nil {
			return nil, err
		}
		proc = p
	case "nlm2d":
		p, err := denoiser.NewTwoD(sampleRate, frameMs)
		if err != nil {
			return nil, err
		}
		proc, profileOwner = p, p
	default:
		return nil, fmt.Errorf("unknown mode %q", mode)
	}

	if loadProfilePath != "" {
		if profileOwner == nil {
			return nil, fmt.Errorf("mode %q has no noise profile to load into", mode)
		}
		if err := audio.LoadNoiseProfile(loadProfilePath, profileOwner); err != nil {
			return nil, err
		}
	}

	learnParams := params
	learnParams.LearnNoise = true
	if learnSamples > 0 && profileOwner == nil {
		return nil, fmt.Errorf("mode %q cannot learn a noise profile", mode)
	}

	n := len(samples)
	if learnSamples > n {
		learnSamples = n
	}

	latency := proc.GetLatency()
	padded := make([]float64, n+latency)
	copy(padded, samples)
	out := make([]float64, len(padded))

	if learnSamples > 0 {
		if err := proc.LoadParameters(learnParams); err != nil {
			return nil, err
		}
		if !proc.Process(padded[:learnSamples], out[:learnSamples]) {
			return nil, fmt.Errorf("learning pass failed")
		}
		logger.Info("learned noise profile", "samples", learnSamples)
	}

	if err := proc.LoadParameters(params); err != nil {
		return nil, err
	}
	rest := padded[learnSamples:]
	if !proc.Process(rest, out[learnSamples:]) {
		return nil, fmt.Errorf("reduction pass failed")
	}

	if saveProfilePath != "" {
		if profileOwner == nil {
			return nil, fmt.Errorf("mode %q has no noise profile to save", mode)
		}
		if err := audio.SaveNoiseProfile(saveProfilePath, profileOwner); err != nil {
			return nil, err
		}
	}

	return out[latency : latency+n], nil
}

func buildParameters(reductionDB, smoothing, whitening, noiseRescale, postFilterDB float64,
	scalingType, estimationMethod string, adaptiveNoise, residualListen bool, profileMode string) (denoiser.Parameters, error) {

	p := denoiser.DefaultParameters()
	p.ReductionAmount = denoiser.ReductionAmountFromDB(reductionDB)
	p.SmoothingFactor = smoothing
	p.WhiteningFactor = whitening
	p.NoiseRescale = noiseRescale
	p.PostFilterThreshold = denoiser.PostFilterThresholdFromDB(postFilterDB)
	p.AdaptiveNoise = adaptiveNoise
	p.ResidualListen = residualListen

	switch scalingType {
	case "global":
		p.NoiseScalingType = dsp.GlobalSNRScaling
	case "band":
		p.NoiseScalingType = dsp.PerBandSNRScaling
	case "masking":
		p.NoiseScalingType = dsp.MaskingThresholdScaling
	default:
		return p, fmt.Errorf("unknown scaling %q", scalingType)
	}

	switch estimationMethod {
	case "sppmmse":
		p.NoiseEstimationMethod = noise.SPPMMSEMethod
	case "trimmedmean":
		p.NoiseEstimationMethod = noise.TrimmedMeanMethod
	case "minstats":
		p.NoiseEstimationMethod = noise.MinimumStatistics
	default:
		return p, fmt.Errorf("unknown estimation method %q", estimationMethod)
	}

	switch profileMode {
	case "mean":
		p.NoiseReductionMode = noise.RollingMean
	case "median":
		p.NoiseReductionMode = noise.Median
	case "max":
		p.NoiseReductionMode = noise.Max
	default:
		return p, fmt.Errorf("unknown profile mode %q", profileMode)
	}

	return p, nil
}
