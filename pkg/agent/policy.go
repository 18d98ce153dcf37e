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

import (
	"strings"
	"time"
)

// CallPolicy decides when a call ends and which DTMF input counts. Sessions
// receive one at construction; swapping it changes behavior for every call
// the session handles.
type CallPolicy struct {
	// MaxCallDuration ends the call once elapsed time reaches it.
	MaxCallDuration time.Duration
	// VoicemailSilence and VoicemailAudioLevel together classify the far
	// end as voicemail: silence longer than the first while the measured
	// level stays under the second.
	VoicemailSilence    time.Duration
	VoicemailAudioLevel float64
	// ValidDigits lists the DTMF digits forwarded to the model.
	ValidDigits string
}

func DefaultCallPolicy() CallPolicy {
	return CallPolicy{
		MaxCallDuration:     10 * time.Minute,
		VoicemailSilence:    3 * time.Second,
		VoicemailAudioLevel: 0.1,
		ValidDigits:         "0123456789*#",
	}
}

// ShouldHangUp reports whether the call has run past its allowed duration.
func (p CallPolicy) ShouldHangUp(elapsed time.Duration) bool {
	return p.MaxCallDuration > 0 && elapsed >= p.MaxCallDuration
}

// IsVoicemail reports whether the observed silence window and audio level
// look like a voicemail greeting ended and recording started.
func (p CallPolicy) IsVoicemail(silence time.Duration, level float64) bool {
	return silence > p.VoicemailSilence && level < p.VoicemailAudioLevel
}

// ValidDTMF reports whether the digit may be forwarded to the model.
func (p CallPolicy) ValidDTMF(digit string) bool {
	if len(digit) != 1 {
		return false
	}
	return strings.Contains(p.ValidDigits, digit)
}
