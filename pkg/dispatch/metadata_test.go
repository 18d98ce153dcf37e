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

package dispatch

import (
	"regexp"
	"testing"
)

func TestJobMetadataRoundTrip(t *testing.T) {
	md, err := JobMetadata{PhoneNumber: "+14155551234"}.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if md != `{"phone_number":"+14155551234"}` {
		t.Errorf("Encode = %s", md)
	}

	parsed, ok := ParseJobMetadata(md)
	if !ok {
		t.Fatal("expected outbound metadata to parse")
	}
	if parsed.PhoneNumber != "+14155551234" {
		t.Errorf("phone number = %q", parsed.PhoneNumber)
	}
}

func TestParseJobMetadataInboundFallback(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"malformed json", "{not json"},
		{"missing key", `{"other": 1}`},
		{"empty number", `{"phone_number": ""}`},
		{"wrong type", `{"phone_number": 42}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := ParseJobMetadata(tt.in); ok {
				t.Errorf("ParseJobMetadata(%q) should not parse as outbound", tt.in)
			}
		})
	}
}

func TestNewRoomName(t *testing.T) {
	pattern := regexp.MustCompile(`^outbound-call-[0-9a-f]{8}$`)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		name := NewRoomName()
		if !pattern.MatchString(name) {
			t.Fatalf("room name %q does not match expected pattern", name)
		}
		if seen[name] {
			t.Fatalf("duplicate room name %q", name)
		}
		seen[name] = true
	}
}
