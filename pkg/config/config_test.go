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
	"strings"
	"testing"
)

func TestValidateLiveKit(t *testing.T) {
	c := &Config{}
	err := c.ValidateLiveKit()
	if err == nil {
		t.Fatal("expected error for empty LiveKit config")
	}
	for _, name := range []string{"LIVEKIT_URL", "LIVEKIT_API_KEY", "LIVEKIT_API_SECRET"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error should name %s, got: %v", name, err)
		}
	}

	c.LiveKit.URL = "wss://example.livekit.cloud"
	c.LiveKit.APIKey = "key"
	c.LiveKit.APISecret = "secret"
	if err := c.ValidateLiveKit(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateTwilio(t *testing.T) {
	c := &Config{}
	c.Twilio.AccountSID = "AC123"
	err := c.ValidateTwilio()
	if err == nil {
		t.Fatal("expected error for partial Twilio config")
	}
	if strings.Contains(err.Error(), "TWILIO_ACCOUNT_SID") {
		t.Errorf("error should not name a present variable: %v", err)
	}
	for _, name := range []string{"TWILIO_AUTH_TOKEN", "TWILIO_PHONE_NUMBER"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error should name %s, got: %v", name, err)
		}
	}

	c.Twilio.AuthToken = "token"
	c.Twilio.PhoneNumber = "+14155551234"
	if err := c.ValidateTwilio(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestInitDefaults(t *testing.T) {
	c := &Config{ServiceName: "test"}
	if err := c.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if c.AgentName != DefaultAgentName {
		t.Errorf("agent name default: got %q", c.AgentName)
	}
	if c.HealthPort != DefaultHealthPort {
		t.Errorf("health port default: got %d", c.HealthPort)
	}
	if c.WebhookPort != DefaultWebhookPort {
		t.Errorf("webhook port default: got %d", c.WebhookPort)
	}
	if c.AgentTimeout != DefaultAgentTimeout {
		t.Errorf("agent timeout default: got %v", c.AgentTimeout)
	}
}

func TestNewConfigFromEnv(t *testing.T) {
	t.Setenv("LIVEKIT_URL", " wss://example.livekit.cloud ")
	t.Setenv("LIVEKIT_API_KEY", "key")
	t.Setenv("AGENT_NAME", "custom-agent")
	t.Setenv("HEALTH_PORT", "9100")

	c := NewConfig()
	if c.LiveKit.URL != "wss://example.livekit.cloud" {
		t.Errorf("URL should be trimmed, got %q", c.LiveKit.URL)
	}
	if c.AgentName != "custom-agent" {
		t.Errorf("agent name: got %q", c.AgentName)
	}
	if c.HealthPort != 9100 {
		t.Errorf("health port: got %d", c.HealthPort)
	}
}
