package audio

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
)

const resampleQuality = 4

// voice is one decoded clip on the mixer. Its fields are guarded by the
// speaker lock once it has been handed to speaker.Play.
type voice struct {
	src  beep.StreamSeekCloser
	ctrl *beep.Ctrl
	vol  *effects.Volume

	fading    bool
	fadeLeft  int
	fadeTotal int
	// done is set when the voice has left the mixer.
	done   bool
	closed bool
}

func newVoice(src beep.StreamSeekCloser, format beep.Format, rate beep.SampleRate) *voice {
	var s beep.Streamer = src
	if format.SampleRate != rate {
		s = beep.Resample(resampleQuality, format.SampleRate, rate, s)
	}
	ctrl := &beep.Ctrl{Streamer: s}
	vol := &effects.Volume{Streamer: ctrl, Base: 2}
	return &voice{src: src, ctrl: ctrl, vol: vol}
}

// Stream implements beep.Streamer. A fading voice is scaled by a linear
// ramp and leaves the mixer when the ramp reaches zero.
func (v *voice) Stream(samples [][2]float64) (int, bool) {
	if v.done {
		return 0, false
	}
	n, ok := v.vol.Stream(samples)
	if v.fading {
		for i := 0; i < n; i++ {
			if v.fadeLeft <= 0 {
				n = i
				break
			}
			g := float64(v.fadeLeft) / float64(v.fadeTotal)
			samples[i][0] *= g
			samples[i][1] *= g
			v.fadeLeft--
		}
		if v.fadeLeft <= 0 {
			ok = false
		}
	}
	if !ok {
		v.done = true
		if v.fading {
			v.close()
		}
	}
	return n, ok
}

// Err implements beep.Streamer.
func (v *voice) Err() error {
	return v.src.Err()
}

func (v *voice) fadeOut(samples int) {
	if v.done {
		v.close()
		return
	}
	if samples <= 0 {
		v.done = true
		v.close()
		return
	}
	v.fading = true
	v.fadeLeft = samples
	v.fadeTotal = samples
}

func (v *voice) rewind() (restart bool, err error) {
	if v.fading || v.closed {
		return false, nil
	}
	if err := v.src.Seek(0); err != nil {
		return false, err
	}
	restart = v.done
	v.done = false
	return restart, nil
}

func (v *voice) setLevel(level float64, muted bool) {
	v.vol.Silent = muted || level <= 0
	if level > 0 {
		v.vol.Volume = math.Log2(level)
	}
}

func (v *voice) close() {
	if v.closed {
		return
	}
	v.closed = true
	_ = v.src.Close()
}

// SpeakerSink plays clips through the faiface/beep speaker. The speaker is
// process-global, so only one SpeakerSink may exist.
type SpeakerSink struct {
	mu      sync.Mutex
	rate    beep.SampleRate
	current *voice
}

// NewSpeakerSink initializes the speaker at sampleRate.
func NewSpeakerSink(sampleRate int) (*SpeakerSink, error) {
	rate := beep.SampleRate(sampleRate)
	if err := speaker.Init(rate, rate.N(time.Second/10)); err != nil {
		return nil, &Error{Code: ErrCodeDeviceIO, Message: "failed to initialize speaker", Cause: err}
	}
	return &SpeakerSink{rate: rate}, nil
}

// Start implements Sink.
func (s *SpeakerSink) Start(path string, level float64, muted bool) error {
	src, format, err := decode(path)
	if err != nil {
		return err
	}

	v := newVoice(src, format, s.rate)
	v.setLevel(level, muted)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = v
	speaker.Play(v)
	return nil
}

// FadeOut implements Sink.
func (s *SpeakerSink) FadeOut(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return
	}
	speaker.Lock()
	s.current.fadeOut(s.rate.N(d))
	speaker.Unlock()
	s.current = nil
}

// Rewind implements Sink.
func (s *SpeakerSink) Rewind() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	speaker.Lock()
	restart, err := s.current.rewind()
	speaker.Unlock()
	if err != nil {
		return &Error{Code: ErrCodeDeviceIO, Message: "failed to rewind clip", Cause: err}
	}
	if restart {
		speaker.Play(s.current)
	}
	return nil
}

// SetPaused implements Sink.
func (s *SpeakerSink) SetPaused(paused bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return
	}
	speaker.Lock()
	s.current.ctrl.Paused = paused
	speaker.Unlock()
}

// SetVolume implements Sink.
func (s *SpeakerSink) SetVolume(level float64, muted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return
	}
	speaker.Lock()
	s.current.setLevel(level, muted)
	speaker.Unlock()
}

// Close implements Sink.
func (s *SpeakerSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	speaker.Clear()
	if s.current != nil {
		s.current.close()
		s.current = nil
	}
	speaker.Close()
	return nil
}

// decode opens and decodes an mp3 or wav file.
func decode(path string) (beep.StreamSeekCloser, beep.Format, error) {
	clip := filepath.Base(path)
	file, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, &Error{Code: ErrCodeInvalidClip, Clip: clip, Message: "failed to open clip", Cause: err}
	}

	var (
		stream beep.StreamSeekCloser
		format beep.Format
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".mp3":
		stream, format, err = mp3.Decode(file)
	case ".wav":
		stream, format, err = wav.Decode(file)
	default:
		err = fmt.Errorf("unsupported audio format %q", ext)
	}
	if err != nil {
		file.Close()
		return nil, beep.Format{}, &Error{Code: ErrCodeInvalidClip, Clip: clip, Message: "failed to decode clip", Cause: err}
	}
	return stream, format, nil
}
