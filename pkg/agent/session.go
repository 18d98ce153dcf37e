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
	"fmt"
	"strings"
	"time"

	"github.com/frostbyte73/core"
	"github.com/livekit/media-sdk/dtmf"
	"github.com/livekit/protocol/livekit"
	"github.com/livekit/protocol/logger"
	lksdk "github.com/livekit/server-sdk-go/v2"
	"github.com/pion/webrtc/v4"

	"github.com/veloxvoip/telephony-agent/pkg/config"
	"github.com/veloxvoip/telephony-agent/pkg/dispatch"
)

// DefaultGreeting is spoken to inbound callers before they say anything.
const DefaultGreeting = "Hello! This is your AI assistant. How can I help you today?"

// DefaultInstructions is the assistant's standing system prompt.
const DefaultInstructions = `You are a helpful AI voice assistant that answers phone calls.

Your role is to:
- Greet callers warmly and professionally
- Listen carefully to what they need
- Provide clear, concise, and helpful responses
- Speak naturally and conversationally
- Be polite and patient

Keep your responses brief and to the point since this is a phone conversation.
If you don't understand something, politely ask the caller to repeat or clarify.`

// SessionConfig names the pipeline pieces a session is built from. The
// component references identify vendor models; the realtime voice vendor
// subsumes them into a single session on its side.
type SessionConfig struct {
	Instructions string
	Greeting     string

	STT               string
	LLM               string
	TTS               string
	VAD               string
	TurnDetection     string
	NoiseCancellation string
}

func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		Instructions:      DefaultInstructions,
		Greeting:          DefaultGreeting,
		STT:               "assemblyai/universal-streaming:en",
		LLM:               "openai/gpt-4o-mini",
		TTS:               "cartesia/sonic-2",
		VAD:               "silero",
		TurnDetection:     "multilingual",
		NoiseCancellation: "bvc",
	}
}

// systemPrompt folds the pipeline references into the vendor instructions
// so the model knows which components it stands in for.
func (sc SessionConfig) systemPrompt() string {
	refs := []string{
		"stt=" + sc.STT,
		"llm=" + sc.LLM,
		"tts=" + sc.TTS,
		"vad=" + sc.VAD,
		"turn_detection=" + sc.TurnDetection,
		"noise_cancellation=" + sc.NoiseCancellation,
	}
	return sc.Instructions + "\n\n[pipeline: " + strings.Join(refs, " ") + "]"
}

// callGreeting picks the greeting for a job. Outbound jobs carry the dialed
// number in metadata and get no greeting, so the callee speaks first;
// anything else (including malformed metadata) is treated as inbound and
// greeted.
func callGreeting(metadata, greeting string) (string, bool) {
	if _, outbound := dispatch.ParseJobMetadata(metadata); outbound {
		return "", true
	}
	return greeting, false
}

// Session runs one call: it joins the room, starts the voice model, bridges
// audio both ways, and enforces the call policy until something ends the
// call.
type Session struct {
	conf   *config.Config
	sc     SessionConfig
	policy CallPolicy
	log    logger.Logger

	closed core.Fuse
}

func NewSession(conf *config.Config, sc SessionConfig, policy CallPolicy, log logger.Logger) *Session {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Session{conf: conf, sc: sc, policy: policy, log: log}
}

// Run executes the job to completion. It returns when the model closes, the
// caller leaves, the policy ends the call, or ctx is canceled.
func (s *Session) Run(ctx context.Context, job *JobContext) error {
	log := s.log.WithValues("room", job.RoomName)

	greeting, outbound := callGreeting(job.Metadata, s.sc.Greeting)
	if outbound {
		md, _ := dispatch.ParseJobMetadata(job.Metadata)
		log.Infow("outbound call, waiting for callee", "toNumber", md.PhoneNumber)
	} else {
		log.Infow("inbound call, greeting caller")
	}

	model, err := newUltravoxModel(log, modelParams{
		APIKey:       s.conf.Ultravox.APIKey,
		ModelName:    s.conf.Ultravox.Model,
		LanguageHint: s.conf.Ultravox.LanguageHint,
		SystemPrompt: s.sc.systemPrompt(),
		Greeting:     greeting,
		MaxDuration:  s.policy.MaxCallDuration,
		TurnDelay:    s.conf.Ultravox.TurnDelay,
	})
	if err != nil {
		return err
	}
	defer model.Close()

	if err := model.Run(ctx); err != nil {
		return err
	}

	meter := newLevelMeter(model.AudioInput())
	callerLeft := make(chan struct{}, 1)

	cb := &lksdk.RoomCallback{
		ParticipantCallback: lksdk.ParticipantCallback{
			OnTrackSubscribed: func(track *webrtc.TrackRemote, pub *lksdk.RemoteTrackPublication, rp *lksdk.RemoteParticipant) {
				log.Infow("subscribed to caller track", "participant", rp.Identity())
				go bridgeRemoteTrack(track, meter, log, s.closed.Watch())
			},
			OnDataPacket: func(data lksdk.DataPacket, params lksdk.DataReceiveParams) {
				if d, ok := data.(*livekit.SipDTMF); ok {
					s.handleDTMF(model, d, log)
				}
			},
		},
		OnParticipantDisconnected: func(rp *lksdk.RemoteParticipant) {
			log.Infow("participant disconnected", "participant", rp.Identity())
			select {
			case callerLeft <- struct{}{}:
			default:
			}
		},
		OnDisconnected: func() {
			select {
			case callerLeft <- struct{}{}:
			default:
			}
		},
	}

	room, err := job.Connect("agent-"+s.conf.AgentName, cb)
	if err != nil {
		return err
	}
	defer room.Disconnect()

	if err := publishModelAudio(room, model, log); err != nil {
		return err
	}
	log.Infow("session started")

	started := time.Now()
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	defer s.closed.Break()

	for {
		select {
		case <-ctx.Done():
			log.Infow("session canceled")
			return ctx.Err()
		case <-model.Closed():
			log.Infow("model ended the call", "duration", time.Since(started))
			return nil
		case <-callerLeft:
			log.Infow("caller left", "duration", time.Since(started))
			return nil
		case <-ticker.C:
			elapsed := time.Since(started)
			if s.policy.ShouldHangUp(elapsed) {
				log.Infow("call reached maximum duration", "duration", elapsed)
				return nil
			}
			if s.policy.IsVoicemail(meter.Silence(), meter.Level()) {
				log.Infow("voicemail detected, hanging up",
					"silence", meter.Silence(), "level", fmt.Sprintf("%.3f", meter.Level()))
				return nil
			}
		}
	}
}

// handleDTMF forwards keypad digits to the model, dropping anything the
// policy does not allow.
func (s *Session) handleDTMF(model Model, d *livekit.SipDTMF, log logger.Logger) {
	if !s.policy.ValidDTMF(d.Digit) {
		log.Warnw("dropping invalid DTMF digit", nil, "digit", d.Digit)
		return
	}
	model.HandleDTMF(dtmf.Event{Code: byte(d.Code), Digit: d.Digit[0]})
}
