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
	"fmt"
	"time"

	msdk "github.com/livekit/media-sdk"
	"github.com/livekit/media-sdk/opus"
	"github.com/livekit/protocol/livekit"
	"github.com/livekit/protocol/logger"
	lksdk "github.com/livekit/server-sdk-go/v2"
	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"
	"github.com/pkg/errors"
)

const (
	roomSampleRate = 48000
	opusFrameDur   = 20 * time.Millisecond
)

var opusCodec = webrtc.RTPCodecCapability{
	MimeType:  webrtc.MimeTypeOpus,
	ClockRate: roomSampleRate,
	Channels:  1,
}

// trackSampleWriter feeds encoded opus frames into a published room track.
type trackSampleWriter struct {
	track *lksdk.LocalSampleTrack
}

func (w *trackSampleWriter) String() string {
	return fmt.Sprintf("TrackSampleWriter(%d)", roomSampleRate)
}

func (w *trackSampleWriter) SampleRate() int { return roomSampleRate }

func (w *trackSampleWriter) WriteSample(s opus.Sample) error {
	return w.track.WriteSample(media.Sample{Data: s, Duration: opusFrameDur}, nil)
}

func (w *trackSampleWriter) Close() error { return nil }

// publishModelAudio publishes a microphone track for the model's voice and
// attaches it to the model's output switch, so speech generated before the
// track existed is simply dropped instead of blocking.
func publishModelAudio(room *lksdk.Room, model Model, log logger.Logger) error {
	track, err := lksdk.NewLocalSampleTrack(opusCodec)
	if err != nil {
		return errors.Wrap(err, "creating local track")
	}
	if _, err = room.LocalParticipant.PublishTrack(track, &lksdk.TrackPublicationOptions{
		Name:   "assistant-voice",
		Source: livekit.TrackSource_MICROPHONE,
	}); err != nil {
		return errors.Wrap(err, "publishing track")
	}

	enc, err := opus.Encode(&trackSampleWriter{track: track}, 1, log)
	if err != nil {
		return errors.Wrap(err, "creating opus encoder")
	}

	sw, ok := model.AudioOutput().(*msdk.SwitchWriter)
	if !ok {
		return errors.New("model output is not switchable")
	}
	if old := sw.Swap(enc); old != nil {
		_ = old.Close()
	}
	log.Infow("model audio published", "track", track.ID())
	return nil
}

// bridgeRemoteTrack pumps a subscribed opus track into the model input
// until the track ends or the session closes.
func bridgeRemoteTrack(track *webrtc.TrackRemote, in msdk.PCM16Writer, log logger.Logger, closed <-chan struct{}) {
	if track.Codec().MimeType != webrtc.MimeTypeOpus {
		log.Warnw("ignoring non-opus track", nil, "mime", track.Codec().MimeType)
		return
	}
	dec, err := opus.Decode(in, 1, log)
	if err != nil {
		log.Errorw("creating opus decoder", err)
		return
	}
	defer dec.Close()

	for {
		select {
		case <-closed:
			return
		default:
		}
		pkt, _, err := track.ReadRTP()
		if err != nil {
			return
		}
		if len(pkt.Payload) == 0 {
			continue
		}
		if err := dec.WriteSample(opus.Sample(pkt.Payload)); err != nil {
			log.Errorw("decoding caller audio", err)
			return
		}
	}
}
