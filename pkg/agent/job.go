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
	"github.com/livekit/protocol/logger"
	lksdk "github.com/livekit/server-sdk-go/v2"
	"github.com/pkg/errors"

	"github.com/veloxvoip/telephony-agent/pkg/config"
)

// JobContext is one unit of work for the worker: a room to join plus the
// dispatch metadata that tells the session whether this is an outbound call.
type JobContext struct {
	RoomName   string
	DispatchID string
	Metadata   string

	conf *config.Config
	log  logger.Logger
}

// Connect joins the job's room as the agent participant. Participant
// lifecycle callbacks only log; media wiring is installed by the caller
// through cb before connecting.
func (j *JobContext) Connect(identity string, cb *lksdk.RoomCallback) (*lksdk.Room, error) {
	if cb == nil {
		cb = &lksdk.RoomCallback{}
	}
	log := j.log
	if cb.ParticipantCallback.OnTrackPublished == nil {
		cb.ParticipantCallback.OnTrackPublished = func(pub *lksdk.RemoteTrackPublication, rp *lksdk.RemoteParticipant) {
			log.Infow("participant published track", "room", j.RoomName, "participant", rp.Identity(), "track", pub.SID())
		}
	}
	if cb.OnParticipantConnected == nil {
		cb.OnParticipantConnected = func(rp *lksdk.RemoteParticipant) {
			log.Infow("participant connected", "room", j.RoomName, "participant", rp.Identity())
		}
	}
	if cb.OnParticipantDisconnected == nil {
		cb.OnParticipantDisconnected = func(rp *lksdk.RemoteParticipant) {
			log.Infow("participant disconnected", "room", j.RoomName, "participant", rp.Identity())
		}
	}

	room, err := lksdk.ConnectToRoom(j.conf.LiveKit.URL, lksdk.ConnectInfo{
		APIKey:              j.conf.LiveKit.APIKey,
		APISecret:           j.conf.LiveKit.APISecret,
		RoomName:            j.RoomName,
		ParticipantIdentity: identity,
		ParticipantName:     j.conf.AgentName,
	}, cb)
	if err != nil {
		return nil, errors.Wrapf(err, "connecting to room %s", j.RoomName)
	}
	j.log.Infow("joined room", "room", j.RoomName, "identity", identity)
	return room, nil
}
