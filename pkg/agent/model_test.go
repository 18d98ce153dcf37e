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
	"strings"
	"testing"
	"time"

	msdk "github.com/livekit/media-sdk"
)

func TestPCM16RoundTrip(t *testing.T) {
	in := msdk.PCM16Sample{0, 1, -1, 32767, -32768, 1234}

	buf, err := pcm16ToBytes(in, nil)
	if err != nil {
		t.Fatalf("pcm16ToBytes: %v", err)
	}
	if len(buf) != len(in)*2 {
		t.Fatalf("byte length = %d, want %d", len(buf), len(in)*2)
	}

	out := bytesToPCM16(buf, nil)
	if len(out) != len(in) {
		t.Fatalf("sample length = %d, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("sample[%d] = %d, want %d", i, out[i], in[i])
		}
	}
}

func TestBytesToPCM16OddLength(t *testing.T) {
	if got := bytesToPCM16([]byte{1, 2, 3}, nil); got != nil {
		t.Errorf("odd input should return nil, got %v", got)
	}
}

func TestPCM16BufferReuse(t *testing.T) {
	buf := make([]byte, 0, 64)
	sample := msdk.PCM16Sample{1, 2, 3}

	out, err := pcm16ToBytes(sample, buf)
	if err != nil {
		t.Fatalf("pcm16ToBytes: %v", err)
	}
	if cap(out) != 64 {
		t.Errorf("buffer was reallocated: cap = %d", cap(out))
	}
}

// sink records written samples.
type sink struct {
	samples int
}

func (s *sink) String() string                       { return "sink" }
func (s *sink) SampleRate() int                      { return modelSampleRate }
func (s *sink) Close() error                         { return nil }
func (s *sink) WriteSample(_ msdk.PCM16Sample) error { s.samples++; return nil }

func TestLevelMeter(t *testing.T) {
	out := &sink{}
	m := newLevelMeter(out)

	loud := make(msdk.PCM16Sample, 480)
	for i := range loud {
		loud[i] = 16000
	}
	if err := m.WriteSample(loud); err != nil {
		t.Fatal(err)
	}
	if m.Level() < 0.4 {
		t.Errorf("loud frame level = %v", m.Level())
	}
	if m.Silence() != 0 {
		t.Errorf("loud frame should reset silence, got %v", m.Silence())
	}

	quiet := make(msdk.PCM16Sample, 480)
	if err := m.WriteSample(quiet); err != nil {
		t.Fatal(err)
	}
	time.Sleep(10 * time.Millisecond)
	if m.Silence() == 0 {
		t.Error("quiet frame should start the silence clock")
	}
	if out.samples != 2 {
		t.Errorf("samples forwarded = %d, want 2", out.samples)
	}
}

func TestSessionConfigPrompt(t *testing.T) {
	sc := DefaultSessionConfig()
	prompt := sc.systemPrompt()

	if !strings.Contains(prompt, sc.Instructions) {
		t.Error("prompt should contain the instructions")
	}
	for _, ref := range []string{"assemblyai/universal-streaming:en", "openai/gpt-4o-mini", "cartesia/sonic-2", "silero", "multilingual", "bvc"} {
		if !strings.Contains(prompt, ref) {
			t.Errorf("prompt missing pipeline reference %q", ref)
		}
	}
}
