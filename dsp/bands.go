package dsp

// BandType selects the critical-band grouping scheme used to coarsen
// per-bin noise-scaling decisions. Neither table is present in the
// retrieved reference sources (only referenced by headers); both are
// built here from the standard published edge-frequency tables, scaled
// to the running sample rate and FFT size at construction time.
type BandType int

const (
	BarkBands BandType = iota
	OpusBands
)

// barkEdgesHz are 26 edge frequencies (Hz): the 25 bounding the 24
// classical Bark critical bands (Zwicker & Fastl), plus 22050 closing a
// last band above 15.5 kHz.
var barkEdgesHz = []float64{
	0, 100, 200, 300, 400, 510, 630, 770, 920, 1080, 1270, 1480, 1720,
	2000, 2320, 2700, 3150, 3700, 4400, 5300, 6400, 7700, 9500, 12000,
	15500, 22050,
}

// opusEdgesHz are the 22 edge frequencies (Hz) of the 21-band Opus/CELT
// band layout, which spaces bands more coarsely than Bark below 1 kHz.
var opusEdgesHz = []float64{
	0, 200, 400, 600, 800, 1000, 1200, 1400, 1600, 2000, 2400, 2800,
	3200, 4000, 4800, 5600, 6800, 8000, 9600, 12000, 15500, 22050,
}

// Band is a contiguous inclusive-exclusive bin range [Start, End).
type Band struct {
	Start, End int
}

// CriticalBands holds the per-band bin ranges for a given sample rate and
// real-bin count.
type CriticalBands struct {
	Bands []Band
}

// NewCriticalBands builds the band table for the given type, sample rate
// and number of real (one-sided) FFT bins.
func NewCriticalBands(t BandType, sampleRate, realBins int) *CriticalBands {
	edges := barkEdgesHz
	if t == OpusBands {
		edges = opusEdgesHz
	}

	nyquist := float64(sampleRate) / 2
	bands := make([]Band, 0, len(edges)-1)
	prevEnd := 0
	for i := 0; i < len(edges)-1; i++ {
		hi := edges[i+1]
		if hi > nyquist {
			hi = nyquist
		}
		end := int(hi / nyquist * float64(realBins-1))
		if end <= prevEnd {
			end = prevEnd
		}
		if end >= realBins {
			end = realBins - 1
		}
		bands = append(bands, Band{Start: prevEnd, End: end + 1})
		prevEnd = end + 1
		if prevEnd >= realBins || edges[i+1] >= nyquist {
			break
		}
	}
	if len(bands) == 0 || bands[len(bands)-1].End < realBins {
		lastStart := prevEnd
		if len(bands) > 0 {
			lastStart = bands[len(bands)-1].End
		}
		if lastStart < realBins {
			bands = append(bands, Band{Start: lastStart, End: realBins})
		}
	}
	return &CriticalBands{Bands: bands}
}

// ForBin returns the index of the band containing bin k, or -1 if k is
// out of range.
func (c *CriticalBands) ForBin(k int) int {
	for i, b := range c.Bands {
		if k >= b.Start && k < b.End {
			return i
		}
	}
	return -1
}
