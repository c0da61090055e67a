package capture

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// wavFormatIEEEFloat is the WAVE format tag for 32-bit float samples.
const wavFormatIEEEFloat = 3

// EncodeWAV writes samples as a 32-bit IEEE float mono WAV stream.
func EncodeWAV(w io.Writer, samples []float32, sampleRate int) error {
	const (
		channels      = 1
		bitsPerSample = 32
	)

	dataLen := len(samples) * 4
	byteRate := sampleRate * channels * bitsPerSample / 8
	blockAlign := channels * bitsPerSample / 8

	// RIFF size covers fmt(24) + fact(12) + data header(8) + payload.
	riffSize := 4 + 24 + 12 + 8 + dataLen

	var header []interface{}
	header = append(header,
		[]byte("RIFF"), uint32(riffSize), []byte("WAVE"),
		[]byte("fmt "), uint32(16),
		uint16(wavFormatIEEEFloat), uint16(channels),
		uint32(sampleRate), uint32(byteRate),
		uint16(blockAlign), uint16(bitsPerSample),
		[]byte("fact"), uint32(4), uint32(len(samples)),
		[]byte("data"), uint32(dataLen),
	)
	for _, v := range header {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return fmt.Errorf("write wav header: %w", err)
		}
	}

	if err := binary.Write(w, binary.LittleEndian, samples); err != nil {
		return fmt.Errorf("write wav samples: %w", err)
	}
	return nil
}

// WriteWAVFile encodes samples into a WAV file at path.
func WriteWAVFile(path string, samples []float32, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create wav file: %w", err)
	}
	if err := EncodeWAV(f, samples, sampleRate); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
