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

// Package sip places outbound calls and provisions SIP trunks on the media
// platform. SIP signaling itself is the platform's job; this package only
// speaks its APIs.
package sip

import (
	"context"
	"time"

	"github.com/livekit/protocol/livekit"
	"github.com/livekit/protocol/logger"
	"github.com/livekit/psrpc"
	lksdk "github.com/livekit/server-sdk-go/v2"
	"github.com/pkg/errors"

	"github.com/veloxvoip/telephony-agent/pkg/config"
	"github.com/veloxvoip/telephony-agent/pkg/phone"
)

// agentPollInterval is how often WaitForAgent re-lists room participants.
const agentPollInterval = 500 * time.Millisecond

type Client struct {
	sip   *lksdk.SIPClient
	rooms *lksdk.RoomServiceClient
	conf  *config.Config
	log   logger.Logger
}

func NewClient(conf *config.Config) (*Client, error) {
	if err := conf.ValidateLiveKit(); err != nil {
		return nil, err
	}
	lk := conf.LiveKit
	return &Client{
		sip:   lksdk.NewSIPClient(lk.URL, lk.APIKey, lk.APISecret),
		rooms: lksdk.NewRoomServiceClient(lk.URL, lk.APIKey, lk.APISecret),
		conf:  conf,
		log:   logger.GetLogger(),
	}, nil
}

// CallRequest describes an outbound SIP call. TrunkID falls back to the
// configured outbound trunk; identity and name default from the number.
type CallRequest struct {
	PhoneNumber         string
	RoomName            string
	TrunkID             string
	ParticipantIdentity string
	ParticipantName     string
}

// CreateOutboundCall dials the number into the room through the outbound
// trunk. The number is validated before any platform request is made.
func (c *Client) CreateOutboundCall(ctx context.Context, req CallRequest) (*livekit.SIPParticipantInfo, error) {
	num, err := phone.Normalize(req.PhoneNumber)
	if err != nil {
		return nil, err
	}
	if req.RoomName == "" {
		return nil, psrpc.NewErrorf(psrpc.InvalidArgument, "room name is required")
	}
	trunkID := req.TrunkID
	if trunkID == "" {
		trunkID = c.conf.LiveKit.OutboundTrunkID
	}
	if trunkID == "" {
		return nil, psrpc.NewErrorf(psrpc.InvalidArgument, "no outbound trunk configured")
	}
	identity := req.ParticipantIdentity
	if identity == "" {
		identity = "caller-" + num
	}
	name := req.ParticipantName
	if name == "" {
		name = num
	}

	c.log.Infow("creating outbound call", "toNumber", num, "room", req.RoomName, "trunkID", trunkID)
	pi, err := c.sip.CreateSIPParticipant(ctx, &livekit.CreateSIPParticipantRequest{
		SipTrunkId:          trunkID,
		SipCallTo:           num,
		RoomName:            req.RoomName,
		ParticipantIdentity: identity,
		ParticipantName:     name,
		KrispEnabled:        true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "creating SIP participant")
	}
	c.log.Infow("outbound call created", "participant", pi.ParticipantIdentity, "room", req.RoomName)
	return pi, nil
}

// WaitForAgent polls the room until a participant with the given identity
// joins, so the callee never hears an empty room. It fails after timeout
// instead of assuming the agent showed up.
func (c *Client) WaitForAgent(ctx context.Context, room, identity string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(agentPollInterval)
	defer ticker.Stop()

	for {
		resp, err := c.rooms.ListParticipants(ctx, &livekit.ListParticipantsRequest{Room: room})
		if err == nil {
			for _, p := range resp.Participants {
				if p.Identity == identity || p.Kind == livekit.ParticipantInfo_AGENT {
					c.log.Infow("agent present in room", "room", room, "identity", p.Identity)
					return nil
				}
			}
		} else {
			// Room may not exist yet right after dispatch; keep polling.
			c.log.Debugw("listing participants", "room", room, "error", err)
		}

		select {
		case <-ctx.Done():
			return psrpc.NewErrorf(psrpc.DeadlineExceeded,
				"agent %q did not join room %q within %v", identity, room, timeout)
		case <-ticker.C:
		}
	}
}

// GetOutboundTrunk fetches a single outbound trunk by ID.
func (c *Client) GetOutboundTrunk(ctx context.Context, trunkID string) (*livekit.SIPOutboundTrunkInfo, error) {
	resp, err := c.sip.GetSIPOutboundTrunk(ctx, &livekit.GetSIPOutboundTrunkRequest{SipTrunkId: trunkID})
	if err != nil {
		return nil, errors.Wrap(err, "getting outbound trunk")
	}
	return resp.Trunk, nil
}

// ListOutboundTrunks returns all outbound trunks for the project.
func (c *Client) ListOutboundTrunks(ctx context.Context) ([]*livekit.SIPOutboundTrunkInfo, error) {
	resp, err := c.sip.ListSIPOutboundTrunk(ctx, &livekit.ListSIPOutboundTrunkRequest{})
	if err != nil {
		return nil, errors.Wrap(err, "listing outbound trunks")
	}
	return resp.Items, nil
}
