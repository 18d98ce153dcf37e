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

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/livekit/protocol/logger"
	"github.com/livekit/protocol/logger/medialogutils"
	"github.com/livekit/psrpc"
	lksdk "github.com/livekit/server-sdk-go/v2"
)

const (
	DefaultAgentName   = "telephony-agent"
	DefaultHealthPort  = 8081
	DefaultWebhookPort = 8080

	DefaultAgentTimeout = 30 * time.Second
)

// LiveKitConfig carries media-platform credentials. Components receive the
// struct by reference and never read process environment themselves.
type LiveKitConfig struct {
	URL       string `yaml:"url"`        // env LIVEKIT_URL
	APIKey    string `yaml:"api_key"`    // env LIVEKIT_API_KEY
	APISecret string `yaml:"api_secret"` // env LIVEKIT_API_SECRET

	// OutboundTrunkID is the SIP trunk used for call placement when the
	// caller does not supply one.
	OutboundTrunkID string `yaml:"outbound_trunk_id"` // env LIVEKIT_OUTBOUND_TRUNK_ID
}

// TwilioConfig carries telephony-provider credentials. The SIP username and
// password must match the credential pair on the media-platform trunks,
// otherwise signaling fails in both directions.
type TwilioConfig struct {
	AccountSID  string `yaml:"account_sid"`  // env TWILIO_ACCOUNT_SID
	AuthToken   string `yaml:"auth_token"`   // env TWILIO_AUTH_TOKEN
	PhoneNumber string `yaml:"phone_number"` // env TWILIO_PHONE_NUMBER
	TrunkSID    string `yaml:"trunk_sid"`    // env TWILIO_SIP_TRUNK_SID
	SIPUsername string `yaml:"sip_username"` // env TWILIO_SIP_USERNAME
	SIPPassword string `yaml:"sip_password"` // env TWILIO_SIP_PASSWORD
	SIPDomain   string `yaml:"sip_domain"`   // env TWILIO_SIP_TRUNK_DOMAIN
}

// UltravoxConfig carries the realtime voice model vendor settings.
type UltravoxConfig struct {
	APIKey       string        `yaml:"api_key"`       // env ULTRAVOX_API_KEY
	Model        string        `yaml:"model"`         // env ULTRAVOX_MODEL
	LanguageHint string        `yaml:"language_hint"` // env ULTRAVOX_LANGUAGE_HINT
	TurnDelay    time.Duration `yaml:"turn_delay"`
}

type Config struct {
	LiveKit  LiveKitConfig  `yaml:"livekit"`
	Twilio   TwilioConfig   `yaml:"twilio"`
	Ultravox UltravoxConfig `yaml:"ultravox"`

	AgentName    string        `yaml:"agent_name"`    // env AGENT_NAME
	HealthPort   int           `yaml:"health_port"`   // env HEALTH_PORT
	WebhookPort  int           `yaml:"webhook_port"`  // env WEBHOOK_PORT
	AgentTimeout time.Duration `yaml:"agent_timeout"` // readiness poll bound
	Logging      logger.Config `yaml:"logging"`

	// internal
	ServiceName string `yaml:"-"`
}

// NewConfig builds a Config from process environment. Environment is read
// once, here, and nowhere else.
func NewConfig() *Config {
	c := &Config{
		LiveKit: LiveKitConfig{
			URL:             strings.TrimSpace(os.Getenv("LIVEKIT_URL")),
			APIKey:          strings.TrimSpace(os.Getenv("LIVEKIT_API_KEY")),
			APISecret:       os.Getenv("LIVEKIT_API_SECRET"),
			OutboundTrunkID: strings.TrimSpace(os.Getenv("LIVEKIT_OUTBOUND_TRUNK_ID")),
		},
		Twilio: TwilioConfig{
			AccountSID:  strings.TrimSpace(os.Getenv("TWILIO_ACCOUNT_SID")),
			AuthToken:   os.Getenv("TWILIO_AUTH_TOKEN"),
			PhoneNumber: strings.TrimSpace(os.Getenv("TWILIO_PHONE_NUMBER")),
			TrunkSID:    strings.TrimSpace(os.Getenv("TWILIO_SIP_TRUNK_SID")),
			SIPUsername: strings.TrimSpace(os.Getenv("TWILIO_SIP_USERNAME")),
			SIPPassword: os.Getenv("TWILIO_SIP_PASSWORD"),
			SIPDomain:   strings.TrimSpace(os.Getenv("TWILIO_SIP_TRUNK_DOMAIN")),
		},
		Ultravox: UltravoxConfig{
			APIKey:       strings.TrimSpace(os.Getenv("ULTRAVOX_API_KEY")),
			Model:        strings.TrimSpace(os.Getenv("ULTRAVOX_MODEL")),
			LanguageHint: strings.TrimSpace(os.Getenv("ULTRAVOX_LANGUAGE_HINT")),
		},
		AgentName:   strings.TrimSpace(os.Getenv("AGENT_NAME")),
		ServiceName: "telephony-agent",
	}
	c.HealthPort = intFromEnv("HEALTH_PORT", 0)
	c.WebhookPort = intFromEnv("WEBHOOK_PORT", 0)
	if lvl := strings.TrimSpace(os.Getenv("LOG_LEVEL")); lvl != "" {
		c.Logging.Level = lvl
	}
	return c
}

// Init applies defaults and initializes logging.
func (c *Config) Init() error {
	if c.AgentName == "" {
		c.AgentName = DefaultAgentName
	}
	if c.HealthPort == 0 {
		c.HealthPort = DefaultHealthPort
	}
	if c.WebhookPort == 0 {
		c.WebhookPort = DefaultWebhookPort
	}
	if c.AgentTimeout == 0 {
		c.AgentTimeout = DefaultAgentTimeout
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	return c.InitLogger()
}

func (c *Config) InitLogger(values ...interface{}) error {
	zl, err := logger.NewZapLogger(&c.Logging)
	if err != nil {
		return err
	}
	logger.SetLogger(zl.WithValues(values...), c.ServiceName)
	lksdk.SetLogger(medialogutils.NewOverrideLogger(nil))
	return nil
}

// ValidateLiveKit fails fast when a media-platform credential is missing.
// Call before issuing any LiveKit request.
func (c *Config) ValidateLiveKit() error {
	var missing []string
	if c.LiveKit.URL == "" {
		missing = append(missing, "LIVEKIT_URL")
	}
	if c.LiveKit.APIKey == "" {
		missing = append(missing, "LIVEKIT_API_KEY")
	}
	if c.LiveKit.APISecret == "" {
		missing = append(missing, "LIVEKIT_API_SECRET")
	}
	return missingErr(missing)
}

// ValidateTwilio fails fast when a telephony-provider credential is missing.
// Call before issuing any Twilio request.
func (c *Config) ValidateTwilio() error {
	var missing []string
	if c.Twilio.AccountSID == "" {
		missing = append(missing, "TWILIO_ACCOUNT_SID")
	}
	if c.Twilio.AuthToken == "" {
		missing = append(missing, "TWILIO_AUTH_TOKEN")
	}
	if c.Twilio.PhoneNumber == "" {
		missing = append(missing, "TWILIO_PHONE_NUMBER")
	}
	return missingErr(missing)
}

func missingErr(missing []string) error {
	if len(missing) == 0 {
		return nil
	}
	return psrpc.NewErrorf(psrpc.InvalidArgument,
		"missing required environment variables: %s", strings.Join(missing, ", "))
}

func intFromEnv(name string, def int) int {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
