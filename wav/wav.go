// Package wav is a minimal streaming WAVE file writer: it doesn't require
// knowing the amount of audio data up front, at the cost of needing a seek
// back to patch the RIFF and data chunk sizes once writing is done.
// See http://soundfile.sapp.org/doc/WaveFormat/ for format documentation.
package wav

import (
	"encoding/binary"
	"io"
)

const pcmFormat = 1

// Writer streams interleaved stereo 16-bit PCM to a WAVE file.
type Writer struct {
	ws io.WriteSeeker
}

type waveFormat struct {
	AudioFormat   uint16
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
}

// NewWriter writes a WAVE header (with placeholder sizes) to ws and returns
// a Writer ready for WriteFrame calls. ws must support Seek so Finish can
// patch the header once the total length is known.
func NewWriter(ws io.WriteSeeker, sampleRate int) (*Writer, error) {
	w := &Writer{ws: ws}

	if _, err := ws.Write([]byte("RIFF")); err != nil {
		return nil, err
	}
	if err := binary.Write(ws, binary.LittleEndian, int32(0)); err != nil { // patched by Finish
		return nil, err
	}
	if _, err := ws.Write([]byte("WAVE")); err != nil {
		return nil, err
	}

	if _, err := ws.Write([]byte("fmt ")); err != nil {
		return nil, err
	}
	if err := binary.Write(ws, binary.LittleEndian, int32(16)); err != nil {
		return nil, err
	}
	format := waveFormat{AudioFormat: pcmFormat, Channels: 2, SampleRate: uint32(sampleRate), BitsPerSample: 16}
	format.BlockAlign = 2 * (16 / 8)
	format.ByteRate = uint32(sampleRate) * uint32(format.BlockAlign)
	if err := binary.Write(ws, binary.LittleEndian, format); err != nil {
		return nil, err
	}

	if _, err := ws.Write([]byte("data")); err != nil {
		return nil, err
	}
	if err := binary.Write(ws, binary.LittleEndian, int32(0)); err != nil { // patched by Finish
		return nil, err
	}

	return w, nil
}

// WriteFrame appends interleaved stereo samples (left, right, left, right,
// ...) to the file.
func (w *Writer) WriteFrame(samples []int16) error {
	return binary.Write(w.ws, binary.LittleEndian, samples)
}

// Finish patches the RIFF chunk size and data chunk size now that the total
// length is known, and returns the file's total length.
func (w *Writer) Finish() (int64, error) {
	wlen, err := w.ws.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}

	if _, err := w.ws.Seek(4, io.SeekStart); err != nil {
		return 0, err
	}
	if err := binary.Write(w.ws, binary.LittleEndian, int32(wlen-8)); err != nil {
		return 0, err
	}

	if _, err := w.ws.Seek(40, io.SeekStart); err != nil {
		return 0, err
	}
	if err := binary.Write(w.ws, binary.LittleEndian, int32(wlen-44)); err != nil {
		return 0, err
	}

	return wlen, nil
}
