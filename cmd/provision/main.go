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

// provision wires a Twilio elastic SIP trunk and the matching LiveKit
// trunks. Run twilio-trunk first, then livekit-inbound and
// livekit-outbound with the same credential pair.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/veloxvoip/telephony-agent/pkg/config"
	"github.com/veloxvoip/telephony-agent/pkg/sip"
	"github.com/veloxvoip/telephony-agent/pkg/twilio"
	"github.com/veloxvoip/telephony-agent/version"
)

func main() {
	cmd := &cli.Command{
		Name:    "provision",
		Usage:   "Provision telephony trunks",
		Version: version.Version,
		Commands: []*cli.Command{
			{
				Name:  "twilio-trunk",
				Usage: "Create and wire the provider SIP trunk",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "trunk friendly name"},
					&cli.StringFlag{Name: "domain", Usage: "termination domain (must end with " + twilio.DomainSuffix + ")"},
					&cli.StringFlag{Name: "sip-uri", Usage: "media platform SIP URI, e.g. sip:sip.livekit.cloud"},
					&cli.StringFlag{Name: "username", Usage: "SIP username", Sources: cli.EnvVars("TWILIO_SIP_USERNAME")},
					&cli.StringFlag{Name: "password", Usage: "SIP password", Sources: cli.EnvVars("TWILIO_SIP_PASSWORD")},
				},
				Action: runTwilioTrunk,
			},
			{
				Name:   "twilio-info",
				Usage:  "Print provider account numbers and trunks",
				Action: runTwilioInfo,
			},
			{
				Name:  "livekit-inbound",
				Usage: "Create the inbound trunk and dispatch rule",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Value: "twilio-inbound", Usage: "trunk name"},
					&cli.StringSliceFlag{Name: "number", Usage: "allowed phone number (repeatable)"},
					&cli.StringSliceFlag{Name: "allowed-address", Usage: "allowed source IP or CIDR (repeatable)"},
					&cli.StringFlag{Name: "username", Usage: "SIP username", Sources: cli.EnvVars("TWILIO_SIP_USERNAME")},
					&cli.StringFlag{Name: "password", Usage: "SIP password", Sources: cli.EnvVars("TWILIO_SIP_PASSWORD")},
				},
				Action: runLiveKitInbound,
			},
			{
				Name:  "livekit-outbound",
				Usage: "Create the outbound trunk",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Value: "twilio-outbound", Usage: "trunk name"},
					&cli.StringFlag{Name: "address", Usage: "provider SIP domain", Sources: cli.EnvVars("TWILIO_SIP_TRUNK_DOMAIN")},
					&cli.StringFlag{Name: "username", Usage: "SIP username", Sources: cli.EnvVars("TWILIO_SIP_USERNAME")},
					&cli.StringFlag{Name: "password", Usage: "SIP password", Sources: cli.EnvVars("TWILIO_SIP_PASSWORD")},
				},
				Action: runLiveKitOutbound,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")

	conf := config.NewConfig()
	if err := conf.Init(); err != nil {
		return nil, err
	}
	return conf, nil
}

// prompt asks on stdin when the flag was not given.
func prompt(c *cli.Command, flag, question string) string {
	if v := strings.TrimSpace(c.String(flag)); v != "" {
		return v
	}
	fmt.Printf("%s: ", question)
	sc := bufio.NewScanner(os.Stdin)
	if !sc.Scan() {
		return ""
	}
	return strings.TrimSpace(sc.Text())
}

func runTwilioTrunk(_ context.Context, c *cli.Command) error {
	conf, err := loadConfig()
	if err != nil {
		return err
	}
	api, err := twilio.NewAPI(conf)
	if err != nil {
		return err
	}

	req := twilio.SetupRequest{
		TrunkName:   prompt(c, "name", "Enter trunk name (e.g. 'my-livekit-trunk')"),
		Domain:      prompt(c, "domain", "Enter domain name (must end with "+twilio.DomainSuffix+")"),
		SIPURI:      prompt(c, "sip-uri", "Enter LiveKit SIP URI (e.g. sip:sip.livekit.cloud)"),
		Username:    prompt(c, "username", "Enter SIP username"),
		Password:    prompt(c, "password", "Enter SIP password"),
		PhoneNumber: conf.Twilio.PhoneNumber,
	}

	res, err := twilio.NewProvisioner(api).Setup(req)
	if err != nil {
		return err
	}

	fmt.Println("Twilio SIP trunk setup complete")
	fmt.Printf("  Trunk SID:           %s\n", res.Trunk.SID)
	fmt.Printf("  Trunk domain:        %s\n", res.Trunk.Domain)
	fmt.Printf("  Credential list SID: %s\n", res.CredentialList.SID)
	if req.PhoneNumber != "" && !res.NumberAttached {
		fmt.Printf("  Note: %s was not found in the account\n", req.PhoneNumber)
	}
	return nil
}

func runTwilioInfo(_ context.Context, _ *cli.Command) error {
	conf, err := loadConfig()
	if err != nil {
		return err
	}
	api, err := twilio.NewAPI(conf)
	if err != nil {
		return err
	}

	info, err := twilio.NewProvisioner(api).Describe()
	if err != nil {
		return err
	}

	fmt.Println("Phone numbers:")
	if len(info.PhoneNumbers) == 0 {
		fmt.Println("  (none; purchase one in the provider console)")
	}
	for _, n := range info.PhoneNumbers {
		fmt.Printf("  %s (%s) SID=%s\n", n.Number, n.Name, n.SID)
	}

	fmt.Println("SIP trunks:")
	if len(info.Trunks) == 0 {
		fmt.Println("  (none; run 'provision twilio-trunk')")
	}
	for _, t := range info.Trunks {
		fmt.Printf("  %s SID=%s domain=%s\n", t.Trunk.Name, t.Trunk.SID, t.Trunk.Domain)
		for _, n := range t.PhoneNumbers {
			fmt.Printf("    number: %s\n", n.Number)
		}
		for _, cl := range t.CredentialLists {
			fmt.Printf("    credential list: %s (SID=%s)\n", cl.Name, cl.SID)
		}
		for _, u := range t.OriginationURLs {
			fmt.Printf("    origination URL: %s (enabled=%v)\n", u.SIPURL, u.Enabled)
		}
	}
	return nil
}

func runLiveKitInbound(ctx context.Context, c *cli.Command) error {
	conf, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := sip.NewClient(conf)
	if err != nil {
		return err
	}

	res, err := client.EnsureInbound(ctx, sip.InboundRequest{
		TrunkName:        c.String("name"),
		Numbers:          c.StringSlice("number"),
		AllowedAddresses: c.StringSlice("allowed-address"),
		Username:         prompt(c, "username", "Enter SIP username"),
		Password:         prompt(c, "password", "Enter SIP password"),
		AgentName:        conf.AgentName,
	})
	if err != nil {
		return err
	}

	fmt.Println("LiveKit inbound trunk setup complete")
	fmt.Printf("  Trunk ID:         %s (created=%v)\n", res.Trunk.SipTrunkId, res.TrunkCreated)
	fmt.Printf("  Dispatch rule ID: %s (created=%v)\n", res.DispatchRule.SipDispatchRuleId, res.RuleCreated)
	fmt.Printf("  Agent name:       %s\n", conf.AgentName)
	return nil
}

func runLiveKitOutbound(ctx context.Context, c *cli.Command) error {
	conf, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := sip.NewClient(conf)
	if err != nil {
		return err
	}

	var numbers []string
	if conf.Twilio.PhoneNumber != "" {
		numbers = append(numbers, conf.Twilio.PhoneNumber)
	}
	trunk, created, err := client.EnsureOutbound(ctx, sip.OutboundRequest{
		TrunkName: c.String("name"),
		Address:   prompt(c, "address", "Enter Twilio SIP trunk domain"),
		Numbers:   numbers,
		Username:  prompt(c, "username", "Enter SIP username"),
		Password:  prompt(c, "password", "Enter SIP password"),
	})
	if err != nil {
		return err
	}

	fmt.Println("LiveKit outbound trunk setup complete")
	fmt.Printf("  Trunk ID: %s (created=%v)\n", trunk.SipTrunkId, created)
	fmt.Println("\nSave this trunk ID to your .env file:")
	fmt.Printf("LIVEKIT_OUTBOUND_TRUNK_ID=%s\n", trunk.SipTrunkId)
	return nil
}
