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

// Package dispatch requests agent jobs for outbound calls.
package dispatch

import (
	"context"

	"github.com/livekit/protocol/livekit"
	"github.com/livekit/protocol/logger"
	lksdk "github.com/livekit/server-sdk-go/v2"
	"github.com/pkg/errors"

	"github.com/veloxvoip/telephony-agent/pkg/config"
	"github.com/veloxvoip/telephony-agent/pkg/phone"
)

// Service creates and deletes agent dispatches on the media platform.
type Service struct {
	client       *lksdk.AgentDispatchClient
	defaultAgent string
	log          logger.Logger
}

func NewService(conf *config.Config) (*Service, error) {
	if err := conf.ValidateLiveKit(); err != nil {
		return nil, err
	}
	client, err := lksdk.NewAgentDispatchServiceClient(
		conf.LiveKit.URL, conf.LiveKit.APIKey, conf.LiveKit.APISecret)
	if err != nil {
		return nil, errors.Wrap(err, "creating agent dispatch client")
	}
	return &Service{
		client:       client,
		defaultAgent: conf.AgentName,
		log:          logger.GetLogger(),
	}, nil
}

// Request describes an outbound-call dispatch. RoomName and AgentName are
// optional; blanks get a generated room and the configured agent.
type Request struct {
	PhoneNumber string
	RoomName    string
	AgentName   string
}

// CreateOutbound validates the number and asks the platform to dispatch an
// agent into the call room. Validation happens before any remote call.
func (s *Service) CreateOutbound(ctx context.Context, req Request) (*livekit.AgentDispatch, error) {
	num, err := phone.Normalize(req.PhoneNumber)
	if err != nil {
		return nil, err
	}
	room := req.RoomName
	if room == "" {
		room = NewRoomName()
	}
	agent := req.AgentName
	if agent == "" {
		agent = s.defaultAgent
	}
	md, err := JobMetadata{PhoneNumber: num}.Encode()
	if err != nil {
		return nil, errors.Wrap(err, "encoding job metadata")
	}

	s.log.Infow("creating agent dispatch", "room", room, "agent", agent, "toNumber", num)
	disp, err := s.client.CreateDispatch(ctx, &livekit.CreateAgentDispatchRequest{
		AgentName: agent,
		Room:      room,
		Metadata:  md,
	})
	if err != nil {
		return nil, errors.Wrap(err, "creating agent dispatch")
	}
	s.log.Infow("agent dispatch created", "dispatchID", disp.Id, "room", room)
	return disp, nil
}

// Delete removes a dispatch. It exists for operator cleanup; call placement
// does not invoke it automatically when a later step fails.
func (s *Service) Delete(ctx context.Context, dispatchID, room string) error {
	_, err := s.client.DeleteDispatch(ctx, &livekit.DeleteAgentDispatchRequest{
		DispatchId: dispatchID,
		Room:       room,
	})
	if err != nil {
		return errors.Wrap(err, "deleting agent dispatch")
	}
	s.log.Infow("agent dispatch deleted", "dispatchID", dispatchID, "room", room)
	return nil
}

// List returns the dispatches active in a room.
func (s *Service) List(ctx context.Context, room string) ([]*livekit.AgentDispatch, error) {
	resp, err := s.client.ListDispatch(ctx, &livekit.ListAgentDispatchRequest{Room: room})
	if err != nil {
		return nil, errors.Wrap(err, "listing agent dispatches")
	}
	return resp.AgentDispatches, nil
}
