package audio

import (
	"fmt"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	emucore "github.com/Zash60/MedNES/api"
)

// WAVSink records 16-bit PCM to a WAV file. With realtime set, writes are
// paced like a device so a headless session runs at normal speed.
type WAVSink struct {
	f     *os.File
	enc   *wav.Encoder
	buf   *goaudio.IntBuffer
	pacer *Pacer
	total int
}

// NewWAVSink creates path and writes a WAV header for format.
func NewWAVSink(path string, format emucore.AudioFormat, realtime bool) (*WAVSink, error) {
	if format.SampleRate <= 0 || format.Channels <= 0 {
		return nil, fmt.Errorf("wav: invalid format %d Hz x%d", format.SampleRate, format.Channels)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("wav: %w", err)
	}

	s := &WAVSink{
		f:   f,
		enc: wav.NewEncoder(f, format.SampleRate, 16, format.Channels, 1),
		buf: &goaudio.IntBuffer{
			Format:         &goaudio.Format{NumChannels: format.Channels, SampleRate: format.SampleRate},
			SourceBitDepth: 16,
		},
	}
	if realtime {
		s.pacer = NewPacer(format)
	}
	return s, nil
}

// Write appends samples to the file.
func (s *WAVSink) Write(samples []int16) error {
	if len(samples) == 0 {
		return nil
	}
	data := s.buf.Data[:0]
	for _, v := range samples {
		data = append(data, int(v))
	}
	s.buf.Data = data
	if err := s.enc.Write(s.buf); err != nil {
		return fmt.Errorf("wav: %w", err)
	}
	s.total += len(samples)
	if s.pacer != nil {
		return s.pacer.Write(samples)
	}
	return nil
}

// Samples returns the number of samples written so far.
func (s *WAVSink) Samples() int {
	return s.total
}

// Close finalizes the WAV header and closes the file.
func (s *WAVSink) Close() error {
	if s.pacer != nil {
		s.pacer.Close()
	}
	encErr := s.enc.Close()
	fileErr := s.f.Close()
	if encErr != nil {
		return fmt.Errorf("wav: %w", encErr)
	}
	if fileErr != nil {
		return fmt.Errorf("wav: %w", fileErr)
	}
	return nil
}
