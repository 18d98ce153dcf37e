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

package phone

import "testing"

func TestFormat(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"already formatted", "+14155551234", "+14155551234"},
		{"bare digits", "14155551234", "+14155551234"},
		{"punctuation", "(415) 555-1234", "+4155551234"},
		{"dots and spaces", "1.415.555.1234", "+14155551234"},
		{"empty", "", "+"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Format(tt.in)
			if got != tt.want {
				t.Errorf("Format(%q) = %q, want %q", tt.in, got, tt.want)
			}
			// formatting is idempotent
			if again := Format(got); again != got {
				t.Errorf("Format(%q) not idempotent: %q", got, again)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"valid US number", "+14155551234", true},
		{"valid short", "+49", true},
		{"max length", "+123456789012345", true},
		{"missing plus", "4155551234", false},
		{"leading zero", "+0123", false},
		{"too long", "+1234567890123456", false},
		{"single digit", "+1", false},
		{"letters", "+1415555abcd", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Validate(tt.in); got != tt.want {
				t.Errorf("Validate(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	num, err := Normalize("(415) 555-1234 x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "+4155551234" {
		t.Errorf("Normalize = %q", num)
	}

	if _, err := Normalize("012"); err == nil {
		t.Error("expected error for invalid number")
	}
}
