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

package sip

import (
	"context"

	"github.com/livekit/protocol/livekit"
	"github.com/pkg/errors"

	"github.com/veloxvoip/telephony-agent/pkg/ipfilter"
)

// InboundRequest describes the inbound side: a trunk accepting calls to the
// listed numbers plus a dispatch rule that opens a fresh room per call and
// dispatches the named agent into it.
type InboundRequest struct {
	TrunkName        string
	Numbers          []string
	AllowedAddresses []string
	Username         string
	Password         string
	AgentName        string
	RoomPrefix       string
}

// InboundResult reports what EnsureInbound created or found.
type InboundResult struct {
	Trunk        *livekit.SIPInboundTrunkInfo
	DispatchRule *livekit.SIPDispatchRuleInfo
	TrunkCreated bool
	RuleCreated  bool
}

// EnsureInbound provisions the inbound trunk and its dispatch rule,
// find-or-create on both so re-runs never duplicate. Allowed addresses are
// validated locally before any platform call.
func (c *Client) EnsureInbound(ctx context.Context, req InboundRequest) (*InboundResult, error) {
	allowed, err := ipfilter.Normalize(req.AllowedAddresses)
	if err != nil {
		return nil, errors.Wrap(err, "validating allowed addresses")
	}
	if req.RoomPrefix == "" {
		req.RoomPrefix = "call-"
	}
	res := &InboundResult{}

	trunks, err := c.sip.ListSIPInboundTrunk(ctx, &livekit.ListSIPInboundTrunkRequest{})
	if err != nil {
		return nil, errors.Wrap(err, "listing inbound trunks")
	}
	for _, t := range trunks.Items {
		if t.Name == req.TrunkName {
			res.Trunk = t
			c.log.Infow("inbound trunk exists", "trunkID", t.SipTrunkId, "name", t.Name)
			break
		}
	}
	if res.Trunk == nil {
		trunk, err := c.sip.CreateSIPInboundTrunk(ctx, &livekit.CreateSIPInboundTrunkRequest{
			Trunk: &livekit.SIPInboundTrunkInfo{
				Name:             req.TrunkName,
				Numbers:          req.Numbers,
				AllowedAddresses: allowed,
				AuthUsername:     req.Username,
				AuthPassword:     req.Password,
			},
		})
		if err != nil {
			return nil, errors.Wrap(err, "creating inbound trunk")
		}
		res.Trunk = trunk
		res.TrunkCreated = true
		c.log.Infow("inbound trunk created", "trunkID", trunk.SipTrunkId, "name", req.TrunkName)
	}

	ruleName := req.TrunkName + "-dispatch"
	rules, err := c.sip.ListSIPDispatchRule(ctx, &livekit.ListSIPDispatchRuleRequest{})
	if err != nil {
		return nil, errors.Wrap(err, "listing dispatch rules")
	}
	for _, r := range rules.Items {
		if r.Name == ruleName {
			res.DispatchRule = r
			c.log.Infow("dispatch rule exists", "ruleID", r.SipDispatchRuleId, "name", r.Name)
			break
		}
	}
	if res.DispatchRule == nil {
		rule, err := c.sip.CreateSIPDispatchRule(ctx, &livekit.CreateSIPDispatchRuleRequest{
			Name:     ruleName,
			TrunkIds: []string{res.Trunk.SipTrunkId},
			// Fresh room per inbound call.
			Rule: &livekit.SIPDispatchRule{
				Rule: &livekit.SIPDispatchRule_DispatchRuleIndividual{
					DispatchRuleIndividual: &livekit.SIPDispatchRuleIndividual{
						RoomPrefix: req.RoomPrefix,
					},
				},
			},
			RoomConfig: &livekit.RoomConfiguration{
				Agents: []*livekit.RoomAgentDispatch{
					{AgentName: req.AgentName},
				},
			},
		})
		if err != nil {
			return nil, errors.Wrap(err, "creating dispatch rule")
		}
		res.DispatchRule = rule
		res.RuleCreated = true
		c.log.Infow("dispatch rule created", "ruleID", rule.SipDispatchRuleId, "name", ruleName)
	}

	return res, nil
}

// OutboundRequest describes the outbound trunk: the telephony provider's
// SIP domain plus the shared credential pair.
type OutboundRequest struct {
	TrunkName string
	Address   string
	Numbers   []string
	Username  string
	Password  string
}

// EnsureOutbound provisions the outbound trunk, find-or-create by name.
// The caller is expected to persist the returned trunk ID into env.
func (c *Client) EnsureOutbound(ctx context.Context, req OutboundRequest) (*livekit.SIPOutboundTrunkInfo, bool, error) {
	trunks, err := c.ListOutboundTrunks(ctx)
	if err != nil {
		return nil, false, err
	}
	for _, t := range trunks {
		if t.Name == req.TrunkName {
			c.log.Infow("outbound trunk exists", "trunkID", t.SipTrunkId, "name", t.Name)
			return t, false, nil
		}
	}

	trunk, err := c.sip.CreateSIPOutboundTrunk(ctx, &livekit.CreateSIPOutboundTrunkRequest{
		Trunk: &livekit.SIPOutboundTrunkInfo{
			Name:         req.TrunkName,
			Address:      req.Address,
			Numbers:      req.Numbers,
			AuthUsername: req.Username,
			AuthPassword: req.Password,
		},
	})
	if err != nil {
		return nil, false, errors.Wrap(err, "creating outbound trunk")
	}
	c.log.Infow("outbound trunk created", "trunkID", trunk.SipTrunkId, "name", req.TrunkName, "address", req.Address)
	return trunk, true, nil
}
