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

import "testing"

func TestCallGreeting(t *testing.T) {
	const greeting = "Hello! How can I help?"

	cases := []struct {
		name         string
		metadata     string
		wantGreeting string
		wantOutbound bool
	}{
		{"outbound metadata", `{"phone_number":"+14155551234"}`, "", true},
		{"no metadata", "", greeting, false},
		{"malformed metadata", `{not json`, greeting, false},
		{"empty phone number", `{"phone_number":""}`, greeting, false},
		{"wrong type", `{"phone_number":42}`, greeting, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, outbound := callGreeting(tc.metadata, greeting)
			if got != tc.wantGreeting {
				t.Errorf("greeting = %q, want %q", got, tc.wantGreeting)
			}
			if outbound != tc.wantOutbound {
				t.Errorf("outbound = %v, want %v", outbound, tc.wantOutbound)
			}
		})
	}
}

// An outbound call must never open with the agent speaking, while an inbound
// call with a greeting must.
func TestFirstSpeakerSelection(t *testing.T) {
	inbound := modelParams{Greeting: DefaultGreeting}
	if !inbound.agentSpeaksFirst() {
		t.Error("greeting set: agent should speak first")
	}

	greeting, _ := callGreeting(`{"phone_number":"+14155551234"}`, DefaultGreeting)
	outbound := modelParams{Greeting: greeting}
	if outbound.agentSpeaksFirst() {
		t.Error("outbound call: callee should speak first")
	}
}
