package stt

import (
	"encoding/binary"
	"errors"
	"math"
)

var errNotPCMWav = errors.New("audio is not 16-bit PCM mono WAV")

// decodeWAV returns the sample data and rate of a 16-bit PCM mono WAV clip.
// Chunks other than "fmt " and "data" are skipped.
func decodeWAV(b []byte) (pcm []byte, sampleRate int, err error) {
	if len(b) < 12 || string(b[0:4]) != "RIFF" || string(b[8:12]) != "WAVE" {
		return nil, 0, errNotPCMWav
	}
	var haveFmt bool
	for off := 12; off+8 <= len(b); {
		id := string(b[off : off+4])
		size := int(binary.LittleEndian.Uint32(b[off+4 : off+8]))
		body := off + 8
		end := body + size
		if end > len(b) {
			end = len(b) // truncated streams report a bogus data size
		}
		switch id {
		case "fmt ":
			if end-body < 16 {
				return nil, 0, errNotPCMWav
			}
			format := binary.LittleEndian.Uint16(b[body : body+2])
			channels := binary.LittleEndian.Uint16(b[body+2 : body+4])
			sampleRate = int(binary.LittleEndian.Uint32(b[body+4 : body+8]))
			bits := binary.LittleEndian.Uint16(b[body+14 : body+16])
			if format != 1 || channels != 1 || bits != 16 {
				return nil, 0, errNotPCMWav
			}
			haveFmt = true
		case "data":
			if !haveFmt {
				return nil, 0, errNotPCMWav
			}
			return b[body:end], sampleRate, nil
		}
		off = end + size%2
	}
	return nil, 0, errNotPCMWav
}

// voiceRMS is the level below which a clip is treated as silence.
const voiceRMS = 250.0

// hasVoice reports whether any 20ms window of 16-bit LE PCM rises above
// voiceRMS.
func hasVoice(pcm []byte, sampleRate int) bool {
	window := sampleRate / 50
	if window <= 0 {
		window = 320
	}
	var sum float64
	n := 0
	for i := 0; i+1 < len(pcm); i += 2 {
		v := float64(int16(binary.LittleEndian.Uint16(pcm[i : i+2])))
		sum += v * v
		n++
		if n == window {
			if math.Sqrt(sum/float64(n)) >= voiceRMS {
				return true
			}
			sum, n = 0, 0
		}
	}
	return n > 0 && math.Sqrt(sum/float64(n)) >= voiceRMS
}
