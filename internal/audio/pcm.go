package audio

import (
	"encoding/binary"
	"math"
	"time"
)

// PCM16FromFloat32 converts normalized float samples in [-1, 1] to
// little-endian 16-bit signed PCM bytes. Values outside the range are
// clamped instead of wrapping.
func PCM16FromFloat32(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		v := float64(s) * 32767
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(v)))
	}
	return out
}

// TrimToDuration cuts a sample buffer down to the audible region reported by
// the engine. Engines may return trailing padding past the spoken audio.
func TrimToDuration(samples []float32, sampleRate int, seconds float64) []float32 {
	if sampleRate <= 0 || seconds <= 0 {
		return samples[:0]
	}
	n := int(math.Round(float64(sampleRate) * seconds))
	if n > len(samples) {
		n = len(samples)
	}
	return samples[:n]
}

// SilencePCM16 returns d worth of silent PCM16LE mono audio at sampleRate.
func SilencePCM16(sampleRate int, d time.Duration) []byte {
	if sampleRate <= 0 || d <= 0 {
		return nil
	}
	n := int(float64(sampleRate) * d.Seconds())
	return make([]byte, n*2)
}
