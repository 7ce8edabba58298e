package sim

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"jaffx/fastmath"
)

// Source produces mono input blocks for the codec.
type Source interface {
	// Fill writes up to len(buf) samples and returns how many it wrote.
	// Zero means the source is exhausted.
	Fill(buf []float32) int
}

// Sink consumes stereo output blocks.
type Sink interface {
	Write(left, right []float32) error
}

// Silence never runs out; Render with it does not return.
type Silence struct{}

func (Silence) Fill(buf []float32) int {
	clear(buf)
	return len(buf)
}

// SineSource is a sine oscillator. Samples limits its length; zero means
// endless.
type SineSource struct {
	Freq       float32
	Amplitude  float32
	SampleRate float32
	Samples    int
	Trig       fastmath.Trig

	phase float32
	done  int
}

// NewSineSource returns an endless sine at freq Hz using the fast trig tables.
func NewSineSource(freq, amplitude, sampleRate float32) *SineSource {
	return &SineSource{Freq: freq, Amplitude: amplitude, SampleRate: sampleRate, Trig: fastmath.Fast{}}
}

func (s *SineSource) Fill(buf []float32) int {
	n := len(buf)
	if s.Samples > 0 {
		n = min(n, s.Samples-s.done)
	}
	trig := s.Trig
	if trig == nil {
		trig = fastmath.Fast{}
	}

	const twoPi = 6.283185307179586
	step := twoPi * s.Freq / s.SampleRate
	for i := 0; i < n; i++ {
		buf[i] = s.Amplitude * trig.Sin(s.phase)
		s.phase += step
		if s.phase >= twoPi {
			s.phase -= twoPi
		}
	}
	s.done += n
	return n
}

// SliceSource plays back a fixed buffer once.
type SliceSource struct {
	Data []float32
	pos  int
}

func (s *SliceSource) Fill(buf []float32) int {
	n := copy(buf, s.Data[s.pos:])
	s.pos += n
	return n
}

// WAVSource decodes PCM WAV input, mixing all channels down to mono.
type WAVSource struct {
	dec      *wav.Decoder
	buf      *audio.IntBuffer
	channels int
	scale    float32
	err      error
}

// ErrNotWAV is returned for input without a RIFF/WAVE header.
var ErrNotWAV = errors.New("sim: not a WAV file")

// NewWAVSource reads the header from r and prepares decoding.
func NewWAVSource(r io.ReadSeeker) (*WAVSource, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, ErrNotWAV
	}
	dec.ReadInfo()
	if err := dec.Err(); err != nil {
		return nil, fmt.Errorf("read wav header: %w", err)
	}
	if dec.NumChans == 0 {
		return nil, fmt.Errorf("read wav header: no channels")
	}

	var scale float32
	switch dec.BitDepth {
	case 16:
		scale = 32768
	case 24:
		scale = 8388608
	case 32:
		scale = 2147483648
	default:
		return nil, fmt.Errorf("read wav header: unsupported bit depth %d", dec.BitDepth)
	}

	return &WAVSource{
		dec:      dec,
		channels: int(dec.NumChans),
		scale:    scale,
		buf:      &audio.IntBuffer{Format: dec.Format()},
	}, nil
}

// SampleRate is the rate recorded in the file header.
func (s *WAVSource) SampleRate() int { return int(s.dec.SampleRate) }

// Err returns the first decode error, if any.
func (s *WAVSource) Err() error { return s.err }

func (s *WAVSource) Fill(buf []float32) int {
	if s.err != nil {
		return 0
	}
	want := len(buf) * s.channels
	if cap(s.buf.Data) < want {
		s.buf.Data = make([]int, want)
	}
	s.buf.Data = s.buf.Data[:want]

	n, err := s.dec.PCMBuffer(s.buf)
	if err != nil && !errors.Is(err, io.EOF) {
		s.err = err
	}
	frames := n / s.channels
	for i := 0; i < frames; i++ {
		var sum int
		for c := 0; c < s.channels; c++ {
			sum += s.buf.Data[i*s.channels+c]
		}
		buf[i] = float32(sum) / float32(s.channels) / s.scale
	}
	return frames
}

// WAVRecorder writes stereo output as 16-bit PCM.
type WAVRecorder struct {
	enc *wav.Encoder
	buf *audio.IntBuffer
}

// NewWAVRecorder starts a stereo 16-bit file at sampleRate. Close must be
// called to finish the header.
func NewWAVRecorder(w io.WriteSeeker, sampleRate int) *WAVRecorder {
	return &WAVRecorder{
		enc: wav.NewEncoder(w, sampleRate, 16, 2, 1),
		buf: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: 2, SampleRate: sampleRate},
			SourceBitDepth: 16,
		},
	}
}

func (r *WAVRecorder) Write(left, right []float32) error {
	n := min(len(left), len(right))
	if cap(r.buf.Data) < 2*n {
		r.buf.Data = make([]int, 2*n)
	}
	r.buf.Data = r.buf.Data[:2*n]
	for i := 0; i < n; i++ {
		r.buf.Data[2*i] = toPCM16(left[i])
		r.buf.Data[2*i+1] = toPCM16(right[i])
	}
	return r.enc.Write(r.buf)
}

func (r *WAVRecorder) Close() error {
	return r.enc.Close()
}

func toPCM16(v float32) int {
	switch {
	case v != v:
		return 0
	case v >= 1:
		return 32767
	case v <= -1:
		return -32768
	}
	return int(v * 32767)
}
