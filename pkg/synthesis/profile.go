package synthesis

import "fmt"

// Decoder constants shared by every supported acoustic model.
const (
	// NativeSampleRate is the sample rate of decoded waveforms.
	NativeSampleRate = 24000
	// DecoderHop is the number of samples per decoder frame.
	DecoderHop = 256
	// DecoderFrameRate is the decoder's frame rate in Hz.
	DecoderFrameRate = float64(NativeSampleRate) / DecoderHop
)

// Profile selects the acoustic-core calling convention and its constants.
// The two profiles differ in how durations and pitch are predicted and at
// which internal frame rate phoneme lengths are quantized.
type Profile struct {
	Name string
	// FrameRate is the internal rate, in Hz, at which lengths become frames.
	FrameRate float64
	// PrePadding is silence, in seconds, prepended before decoding and cut
	// from the waveform afterwards. It absorbs the decoder's startup
	// transient.
	PrePadding float64
	// Variance selects the combined pitch+duration predictor fed with
	// accent markers instead of separate duration and intonation calls.
	Variance bool
}

var (
	// Legacy uses separate duration and intonation predictors at 200 Hz.
	Legacy = Profile{Name: "legacy", FrameRate: 200, PrePadding: 0.4}
	// VarianceProfile uses the combined variance predictor at the decoder
	// frame rate.
	VarianceProfile = Profile{Name: "variance", FrameRate: DecoderFrameRate, PrePadding: 0.4, Variance: true}
)

// ParseProfile returns the profile with the given name.
func ParseProfile(name string) (Profile, error) {
	switch name {
	case "", Legacy.Name:
		return Legacy, nil
	case VarianceProfile.Name:
		return VarianceProfile, nil
	}
	return Profile{}, fmt.Errorf("synthesis: unknown profile %q", name)
}

func (p Profile) String() string { return p.Name }
