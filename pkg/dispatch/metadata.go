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
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

const roomPrefix = "outbound-call-"

// JobMetadata travels from the dispatch request to the agent job. Its
// presence tells the agent which number to expect on the SIP leg; its
// absence means the job is an inbound call.
type JobMetadata struct {
	PhoneNumber string `json:"phone_number"`
}

func (m JobMetadata) Encode() (string, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ParseJobMetadata decodes dispatch metadata. Absent or malformed metadata
// is not an error: the job is simply treated as inbound, so ok is false and
// the zero value is returned.
func ParseJobMetadata(s string) (JobMetadata, bool) {
	if s == "" {
		return JobMetadata{}, false
	}
	var m JobMetadata
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return JobMetadata{}, false
	}
	if m.PhoneNumber == "" {
		return JobMetadata{}, false
	}
	return m, true
}

// NewRoomName returns a unique room name for an outbound call, the fixed
// prefix plus eight hex characters.
func NewRoomName() string {
	id := uuid.New()
	return fmt.Sprintf("%s%x", roomPrefix, id[:4])
}
