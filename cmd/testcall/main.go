// Copyright 2025 VeloxVOIP.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/livekit/protocol/logger"
	"github.com/livekit/psrpc"

	"github.com/veloxvoip/telephony-agent/pkg/config"
	"github.com/veloxvoip/telephony-agent/pkg/dispatch"
	"github.com/veloxvoip/telephony-agent/pkg/sip"
	"github.com/veloxvoip/telephony-agent/version"
)

func main() {
	cmd := &cli.Command{
		Name:      "testcall",
		Usage:     "Place an outbound test call",
		Version:   version.Version,
		ArgsUsage: "<phone number>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "trunk",
				Usage:   "outbound trunk ID (defaults to LIVEKIT_OUTBOUND_TRUNK_ID)",
				Sources: cli.EnvVars("LIVEKIT_OUTBOUND_TRUNK_ID"),
			},
			&cli.StringFlag{
				Name:  "room",
				Usage: "room name (generated when omitted)",
			},
		},
		Action: runTestCall,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runTestCall(ctx context.Context, c *cli.Command) error {
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")

	if c.Args().Len() != 1 {
		return psrpc.NewErrorf(psrpc.InvalidArgument, "usage: testcall <phone number>")
	}
	number := c.Args().First()

	conf := config.NewConfig()
	if err := conf.Init(); err != nil {
		return err
	}
	log := logger.GetLogger()

	disp, err := dispatch.NewService(conf)
	if err != nil {
		return err
	}
	client, err := sip.NewClient(conf)
	if err != nil {
		return err
	}

	d, err := disp.CreateOutbound(ctx, dispatch.Request{
		PhoneNumber: number,
		RoomName:    c.String("room"),
	})
	if err != nil {
		return err
	}

	// The agent must be in the room before the callee picks up.
	agentIdentity := "agent-" + conf.AgentName
	if err := client.WaitForAgent(ctx, d.Room, agentIdentity, conf.AgentTimeout); err != nil {
		log.Warnw("agent not ready, placing call anyway", err, "room", d.Room)
	}

	pi, err := client.CreateOutboundCall(ctx, sip.CallRequest{
		PhoneNumber: number,
		RoomName:    d.Room,
		TrunkID:     c.String("trunk"),
	})
	if err != nil {
		return err
	}

	fmt.Println("Test call placed")
	fmt.Printf("  Room:        %s\n", d.Room)
	fmt.Printf("  Dispatch:    %s\n", d.Id)
	fmt.Printf("  Participant: %s\n", pi.ParticipantIdentity)
	fmt.Printf("  Call ID:     %s\n", pi.SipCallId)
	return nil
}
