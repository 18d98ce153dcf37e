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

package ipfilter

import (
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		wantErr bool
	}{
		{"valid CIDR ranges", []string{"192.168.1.0/24", "10.0.0.0/8"}, false},
		{"single IPs", []string{"192.168.1.100", "10.0.0.1"}, false},
		{"mixed", []string{"192.168.1.0/24", "10.0.0.1", "2001:db8::/32"}, false},
		{"empty list", nil, false},
		{"whitespace entries", []string{"  192.168.1.0/24  ", "  ", "10.0.0.1"}, false},
		{"invalid address", []string{"999.999.999.999"}, true},
		{"invalid mask", []string{"192.168.1.0/99"}, true},
		{"malformed CIDR", []string{"192.168.1/24"}, true},
		{"IPv6 single", []string{"::1", "2001:db8::1"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.allowed)
			if tt.wantErr && err == nil {
				t.Error("expected error, got none")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestContains(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		addr    string
		want    bool
	}{
		{"in CIDR range", []string{"192.168.1.0/24"}, "192.168.1.50", true},
		{"outside CIDR range", []string{"192.168.1.0/24"}, "192.168.2.1", false},
		{"exact IP match", []string{"192.168.1.100"}, "192.168.1.100", true},
		{"near miss", []string{"192.168.1.100"}, "192.168.1.101", false},
		{"with port", []string{"192.168.1.0/24"}, "192.168.1.50:5060", true},
		{"empty list", nil, "192.168.1.1", false},
		{"garbage addr", []string{"192.168.1.0/24"}, "not-an-ip", false},
		{"IPv6 in range", []string{"2001:db8::/32"}, "2001:db8::1", true},
		{"IPv6 out of range", []string{"2001:db8::/32"}, "2001:db9::1", false},
		{"IPv6 with port", []string{"2001:db8::/32"}, "[2001:db8::1]:5060", true},
		{"match last in list", []string{"10.0.0.0/8", "172.16.0.1"}, "172.16.0.1", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := New(tt.allowed)
			if err != nil {
				t.Fatalf("New() error: %v", err)
			}
			if got := f.Contains(tt.addr); got != tt.want {
				t.Errorf("Contains(%q) = %v, want %v", tt.addr, got, tt.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	got, err := Normalize([]string{"192.168.1.100", "10.0.0.0/8", "  "})
	if err != nil {
		t.Fatalf("Normalize() error: %v", err)
	}
	want := []string{"192.168.1.100/32", "10.0.0.0/8"}
	if len(got) != len(want) {
		t.Fatalf("Normalize() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Normalize()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if _, err := Normalize([]string{"bogus"}); err == nil {
		t.Error("expected error for malformed entry")
	}
}
