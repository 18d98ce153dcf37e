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

// Package phone normalizes and validates dialable numbers in E.164 form.
package phone

import (
	"regexp"
	"strings"

	"github.com/livekit/psrpc"
)

// e164 matches a leading +, a non-zero first digit, and at most 15 digits
// total.
var e164 = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)

// Format strips everything but digits and prepends a single +. It is
// idempotent and does not guarantee a valid number; use Validate for that.
func Format(raw string) string {
	var b strings.Builder
	b.Grow(len(raw) + 1)
	b.WriteByte('+')
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Validate reports whether s is a well-formed E.164 number. It does not
// reformat; pass the result of Format if the input may contain punctuation.
func Validate(s string) bool {
	return e164.MatchString(s)
}

// Normalize formats raw and validates the result, returning the E.164
// number or an error naming the offending input.
func Normalize(raw string) (string, error) {
	num := Format(raw)
	if !Validate(num) {
		return "", psrpc.NewErrorf(psrpc.InvalidArgument, "invalid phone number: %q", raw)
	}
	return num, nil
}
