package transform

import (
	"bytes"
	"encoding/binary"
	"io"
)

// EncodeWAV writes mono float32 PCM samples as a 16-bit PCM WAV stream, the
// format both whisper-server and the cloud audio APIs accept.
func EncodeWAV(w io.Writer, samples []float32, sampleRate int) error {
	dataLen := len(samples) * 2
	var header bytes.Buffer

	header.WriteString("RIFF")
	binary.Write(&header, binary.LittleEndian, uint32(36+dataLen))
	header.WriteString("WAVE")

	header.WriteString("fmt ")
	binary.Write(&header, binary.LittleEndian, uint32(16))
	binary.Write(&header, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&header, binary.LittleEndian, uint16(1)) // mono
	binary.Write(&header, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&header, binary.LittleEndian, uint32(sampleRate*2)) // byte rate
	binary.Write(&header, binary.LittleEndian, uint16(2))            // block align
	binary.Write(&header, binary.LittleEndian, uint16(16))           // bits per sample

	header.WriteString("data")
	binary.Write(&header, binary.LittleEndian, uint32(dataLen))

	if _, err := w.Write(header.Bytes()); err != nil {
		return err
	}

	pcm := make([]byte, dataLen)
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		v := int16(s * 32767)
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(v))
	}
	_, err := w.Write(pcm)
	return err
}
