package llm

import (
	"bytes"
	"context"
	"encoding/binary"
	"strconv"
	"strings"
)

// Synthesizer turns text into speech audio. locale is a BCP 47 tag such as
// kn-IN; backends that detect the language themselves may ignore it.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice, locale string) (Audio, error)
}

// Audio is a synthesized clip, ready to be served as a data URI.
type Audio struct {
	MIMEType string
	Data     []byte
}

func (a Audio) DataURI() string {
	return Media{MIMEType: a.MIMEType, Data: a.Data}.DataURI()
}

// Gemini TTS emits raw signed 16-bit little-endian mono PCM.
const (
	defaultPCMRate   = 24000
	pcmChannels      = 1
	pcmBitsPerSample = 16
)

// EncodeWAV wraps raw PCM samples in a RIFF/WAVE container.
func EncodeWAV(pcm []byte, sampleRate, channels, bitsPerSample int) []byte {
	byteRate := sampleRate * channels * bitsPerSample / 8
	blockAlign := channels * bitsPerSample / 8

	var buf bytes.Buffer
	buf.Grow(44 + len(pcm))

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(channels))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&buf, binary.LittleEndian, uint16(bitsPerSample))

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)

	return buf.Bytes()
}

// pcmRate extracts the sample rate from a MIME type such as
// "audio/L16;codec=pcm;rate=24000".
func pcmRate(mime string) int {
	for _, param := range strings.Split(mime, ";") {
		key, val, ok := strings.Cut(strings.TrimSpace(param), "=")
		if ok && strings.EqualFold(key, "rate") {
			if n, err := strconv.Atoi(val); err == nil && n > 0 {
				return n
			}
		}
	}
	return defaultPCMRate
}

func isRawPCM(mime string) bool {
	m := strings.ToLower(mime)
	return strings.HasPrefix(m, "audio/l16") || strings.HasPrefix(m, "audio/pcm")
}
