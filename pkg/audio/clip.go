package audio

import (
	"encoding/binary"
	"time"
)

// WhisperSampleRate is the sample rate whisper models expect.
const WhisperSampleRate = 16000

// Clip is a decoded mono audio clip: normalised float32 samples in
// [-1.0, 1.0] at a known sample rate.
type Clip struct {
	Samples    []float32
	SampleRate int
}

// Duration returns the playing time of the clip.
func (c Clip) Duration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(c.Samples)) / float64(c.SampleRate) * float64(time.Second))
}

// Resampled returns the clip converted to dstRate by linear interpolation.
// If the clip already has that rate, it is returned unchanged.
func (c Clip) Resampled(dstRate int) Clip {
	return Clip{
		Samples:    Resample(c.Samples, c.SampleRate, dstRate),
		SampleRate: dstRate,
	}
}

// Resample converts samples from srcRate to dstRate using linear
// interpolation. If the rates match or either is non-positive, the input is
// returned unchanged.
func Resample(samples []float32, srcRate, dstRate int) []float32 {
	if srcRate <= 0 || dstRate <= 0 || srcRate == dstRate || len(samples) == 0 {
		return samples
	}
	dstLen := int(int64(len(samples)) * int64(dstRate) / int64(srcRate))
	if dstLen == 0 {
		return nil
	}

	out := make([]float32, dstLen)
	ratio := float64(srcRate) / float64(dstRate)
	for i := range dstLen {
		srcPos := float64(i) * ratio
		srcIdx := int(srcPos)
		frac := srcPos - float64(srcIdx)

		s0 := samples[srcIdx]
		s1 := s0
		if srcIdx+1 < len(samples) {
			s1 = samples[srcIdx+1]
		}
		out[i] = float32(float64(s0)*(1-frac) + float64(s1)*frac)
	}
	return out
}

// PCMToFloat32Mono down-mixes 16-bit signed little-endian PCM to mono
// float32 by averaging all channels per frame. Any trailing partial frame is
// ignored.
func PCMToFloat32Mono(pcm []byte, channels int) []float32 {
	if channels < 1 {
		channels = 1
	}
	frames := len(pcm) / (2 * channels)
	mono := make([]float32, frames)
	for i := range frames {
		var sum float32
		for ch := range channels {
			idx := (i*channels + ch) * 2
			sample := int16(binary.LittleEndian.Uint16(pcm[idx : idx+2]))
			sum += float32(sample) / 32768.0
		}
		mono[i] = sum / float32(channels)
	}
	return mono
}

// Float32ToPCM converts mono float32 samples to 16-bit signed little-endian
// PCM, clamping to the int16 range.
func Float32ToPCM(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		v := int32(s * 32768.0)
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		binary.LittleEndian.PutUint16(out[i*2:i*2+2], uint16(int16(v)))
	}
	return out
}
