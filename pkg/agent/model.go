// Copyright 2025 VeloxVOIP.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// 	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package agent

import (
	"context"
	"encoding/binary"
	"io"
	"sync"
	"time"

	msdk "github.com/livekit/media-sdk"
	"github.com/livekit/media-sdk/dtmf"
)

// Model is a realtime voice model attached to one call.
//
// Audio flow:
//
//	room track IN → Model.AudioInput() → vendor WebSocket
//	vendor WebSocket → Model.AudioOutput() (SwitchWriter) → room track OUT
type Model interface {
	// AudioInput is where caller audio is written (room → model).
	AudioInput() msdk.PCM16Writer
	// AudioOutput produces model speech. It is a *msdk.SwitchWriter so the
	// room track can be attached after the model is already running.
	AudioOutput() msdk.PCM16Writer
	// HandleDTMF receives a validated keypad digit from the caller.
	HandleDTMF(ev dtmf.Event)
	// Closed signals that the vendor ended the call.
	Closed() <-chan struct{}
	Close() error
	// Run establishes the vendor session. Non-blocking once connected.
	Run(ctx context.Context) error
}

// bytesToPCM16 decodes little-endian PCM16 bytes, reusing buf's capacity.
func bytesToPCM16(b []byte, buf msdk.PCM16Sample) msdk.PCM16Sample {
	if len(b)%2 != 0 {
		return nil
	}
	n := len(b) / 2
	if cap(buf) < n {
		buf = make(msdk.PCM16Sample, n)
	} else {
		buf = buf[:n]
	}
	for i := 0; i < len(b); i += 2 {
		buf[i/2] = int16(binary.LittleEndian.Uint16(b[i : i+2]))
	}
	return buf
}

// pcm16ToBytes encodes a sample to little-endian bytes, reusing buf's
// capacity.
func pcm16ToBytes(sample msdk.PCM16Sample, buf []byte) ([]byte, error) {
	n := sample.Size()
	if cap(buf) < n {
		buf = make([]byte, n)
	} else {
		buf = buf[:n]
	}
	w, err := sample.CopyTo(buf)
	if err != nil {
		return nil, err
	}
	if w != n {
		return nil, io.ErrShortWrite
	}
	return buf, nil
}

// levelMeter sits in the caller audio path and tracks the mean absolute
// level of the latest frame plus how long the signal has stayed below the
// silence floor. The session polls it to spot voicemail.
type levelMeter struct {
	next msdk.PCM16Writer

	mu         sync.Mutex
	level      float64
	quietSince time.Time
}

// silenceFloor is the normalized level under which a frame counts as quiet.
const silenceFloor = 0.01

var _ msdk.PCM16Writer = (*levelMeter)(nil)

func newLevelMeter(next msdk.PCM16Writer) *levelMeter {
	return &levelMeter{next: next}
}

func (m *levelMeter) String() string  { return "LevelMeter" }
func (m *levelMeter) SampleRate() int { return m.next.SampleRate() }
func (m *levelMeter) Close() error    { return m.next.Close() }

func (m *levelMeter) WriteSample(sample msdk.PCM16Sample) error {
	var sum float64
	for _, s := range sample {
		if s < 0 {
			sum -= float64(s)
		} else {
			sum += float64(s)
		}
	}
	level := 0.0
	if len(sample) > 0 {
		level = sum / float64(len(sample)) / 32768
	}

	m.mu.Lock()
	m.level = level
	if level >= silenceFloor {
		m.quietSince = time.Time{}
	} else if m.quietSince.IsZero() {
		m.quietSince = time.Now()
	}
	m.mu.Unlock()

	return m.next.WriteSample(sample)
}

// Level returns the last observed frame level, normalized to 0..1.
func (m *levelMeter) Level() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.level
}

// Silence returns how long the signal has stayed below the silence floor.
func (m *levelMeter) Silence() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.quietSince.IsZero() {
		return 0
	}
	return time.Since(m.quietSince)
}
