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
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/frostbyte73/core"
	"github.com/gorilla/websocket"
	msdk "github.com/livekit/media-sdk"
	"github.com/livekit/media-sdk/dtmf"
	"github.com/livekit/protocol/logger"
	"github.com/paulgrammer/ultravox"
)

const (
	// Vendor media channel runs PCM16 at 48kHz, matching room audio.
	modelSampleRate = 48000

	defaultModelName = "fixie-ai/ultravox-v0.7"
	defaultTurnDelay = 400 * time.Millisecond
)

// modelParams configures one vendor call.
type modelParams struct {
	APIKey       string
	ModelName    string
	LanguageHint string

	SystemPrompt string
	// Greeting, when set, makes the model speak it before the caller says
	// anything. Empty means the model waits for the caller.
	Greeting    string
	MaxDuration time.Duration
	TurnDelay   time.Duration
}

// agentSpeaksFirst reports whether the model opens the call with the
// configured greeting. Without a greeting the first turn belongs to the
// caller.
func (p modelParams) agentSpeaksFirst() bool { return p.Greeting != "" }

// ultravoxModel bridges PCM16 audio between the room and the vendor's
// realtime WebSocket.
type ultravoxModel struct {
	log    logger.Logger
	params modelParams
	client *ultravox.Client
	call   atomic.Pointer[ultravox.Call]
	conn   atomic.Pointer[websocket.Conn]

	closed core.Fuse

	audioIn  *modelPCMWriter
	audioOut *msdk.SwitchWriter

	recvBuf atomic.Pointer[msdk.PCM16Sample]
}

var _ Model = (*ultravoxModel)(nil)

func newUltravoxModel(log logger.Logger, p modelParams) (*ultravoxModel, error) {
	if p.ModelName == "" {
		p.ModelName = defaultModelName
	}
	if p.TurnDelay <= 0 {
		p.TurnDelay = defaultTurnDelay
	}

	opts := []ultravox.Option{ultravox.WithModel(p.ModelName)}
	if p.APIKey != "" {
		opts = append(opts, ultravox.WithAPIKey(p.APIKey))
	}
	if p.LanguageHint != "" {
		opts = append(opts, ultravox.WithLanguageHint(p.LanguageHint))
	}

	m := &ultravoxModel{
		log:    log,
		params: p,
		client: ultravox.NewClient(opts...),
	}
	m.audioOut = msdk.NewSwitchWriter(modelSampleRate)
	m.audioIn = &modelPCMWriter{model: m}
	return m, nil
}

func (m *ultravoxModel) Run(ctx context.Context) error {
	call, err := m.setupCall(ctx)
	if err != nil {
		return err
	}
	m.call.Store(call)
	m.log.Infow("model call created",
		"callID", call.CallID, "maxDuration", call.MaxDuration.String())

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, call.JoinURL, nil)
	if err != nil {
		return fmt.Errorf("joining model call: %w", err)
	}
	m.conn.Store(conn)

	go m.readMessages()
	return nil
}

func (m *ultravoxModel) setupCall(ctx context.Context) (*ultravox.Call, error) {
	p := m.params

	callOpts := []ultravox.CallOption{
		ultravox.WithCallWebSocketMedium(modelSampleRate, modelSampleRate),
	}
	if p.SystemPrompt != "" {
		callOpts = append(callOpts, ultravox.WithCallSystemPrompt(p.SystemPrompt))
	}
	if p.LanguageHint != "" {
		callOpts = append(callOpts, ultravox.WithCallLanguageHint(p.LanguageHint))
	}
	if p.MaxDuration > 0 {
		callOpts = append(callOpts, ultravox.WithCallMaxDuration(p.MaxDuration))
	}
	// The vendor defaults to agent-first, so the caller-first case must be
	// sent explicitly or an outbound callee would hear the agent greet
	// proactively.
	if p.agentSpeaksFirst() {
		callOpts = append(callOpts, ultravox.WithCallFirstSpeakerSettings(
			ultravox.AgentFirstSpeaker(false, p.Greeting, "", 0)))
	} else {
		callOpts = append(callOpts, ultravox.WithCallFirstSpeakerSettings(
			ultravox.UserFirstSpeaker(0, "", "")))
	}

	vad := ultravox.NewVadSettings()
	vad.TurnEndpointDelay = ultravox.UltravoxDuration(p.TurnDelay)
	callOpts = append(callOpts, ultravox.WithCallVadSettings(vad))

	return m.client.Call(ctx, callOpts...)
}

func (m *ultravoxModel) AudioInput() msdk.PCM16Writer  { return m.audioIn }
func (m *ultravoxModel) AudioOutput() msdk.PCM16Writer { return m.audioOut }

func (m *ultravoxModel) HandleDTMF(ev dtmf.Event) {
	m.log.Infow("DTMF received", "digit", string(ev.Digit), "code", ev.Code)
}

func (m *ultravoxModel) Closed() <-chan struct{} {
	return m.closed.Watch()
}

func (m *ultravoxModel) Close() error {
	if m.closed.IsBroken() {
		return nil
	}
	m.closed.Break()

	var errs []error
	if conn := m.conn.Load(); conn != nil {
		if err := conn.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := m.audioIn.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := m.audioOut.Close(); err != nil {
		errs = append(errs, err)
	}
	m.log.Infow("model closed")
	return errors.Join(errs...)
}

// sendAudio ships caller PCM to the vendor.
func (m *ultravoxModel) sendAudio(buf []byte) error {
	if m.closed.IsBroken() {
		return nil
	}
	conn := m.conn.Load()
	if conn == nil {
		return nil
	}
	return conn.WriteMessage(websocket.BinaryMessage, buf)
}

// handleAudio routes vendor PCM toward the room track.
func (m *ultravoxModel) handleAudio(message []byte) error {
	if len(message)%2 != 0 {
		m.log.Warnw("odd-length audio frame from model", nil, "length", len(message))
		return nil
	}
	buf := m.recvBuf.Load()
	if buf == nil {
		buf = new(msdk.PCM16Sample)
	}
	sample := bytesToPCM16(message, *buf)
	m.recvBuf.Store(&sample)
	return m.audioOut.WriteSample(sample)
}

// modelPCMWriter forwards caller PCM frames to the vendor WebSocket.
type modelPCMWriter struct {
	model   *ultravoxModel
	sendBuf atomic.Pointer[[]byte]
}

func (w *modelPCMWriter) String() string {
	return fmt.Sprintf("ModelPCMWriter(%d)", w.SampleRate())
}

func (w *modelPCMWriter) SampleRate() int { return modelSampleRate }

func (w *modelPCMWriter) WriteSample(sample msdk.PCM16Sample) error {
	buf := w.sendBuf.Load()
	if buf == nil {
		buf = new([]byte)
	}
	b, err := pcm16ToBytes(sample, *buf)
	if err != nil {
		return fmt.Errorf("encoding PCM frame: %w", err)
	}
	w.sendBuf.Store(&b)
	return w.model.sendAudio(b)
}

func (w *modelPCMWriter) Close() error { return nil }
