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
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"
)

// Vendor event payloads. Binary frames are audio; text frames carry these.
type (
	transcriptEvent struct {
		Type  string `json:"type"`
		Role  string `json:"role"`
		Final bool   `json:"final"`
		Text  string `json:"text"`
		Delta string `json:"delta"`
	}

	errorEvent struct {
		Type  string `json:"type"`
		Error string `json:"error"`
	}

	stateEvent struct {
		Type  string `json:"type"`
		State string `json:"state"`
	}

	callStartedEvent struct {
		Type   string `json:"type"`
		CallID string `json:"callId"`
	}
)

func (m *ultravoxModel) readMessages() {
	defer m.closed.Break()
	for {
		conn := m.conn.Load()
		if conn == nil {
			return
		}
		msgType, message, err := conn.ReadMessage()
		if err != nil {
			if !m.closed.IsBroken() &&
				websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				m.log.Errorw("model socket read failed", err)
			}
			return
		}
		if err := m.handleMessage(msgType, message); err != nil {
			m.log.Errorw("handling model message", err)
		}
	}
}

func (m *ultravoxModel) handleMessage(msgType int, message []byte) error {
	switch msgType {
	case websocket.BinaryMessage:
		return m.handleAudio(message)
	case websocket.TextMessage:
		return m.handleEvent(message)
	default:
		return fmt.Errorf("unexpected message type: %d", msgType)
	}
}

func (m *ultravoxModel) handleEvent(msg []byte) error {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(msg, &head); err != nil {
		return fmt.Errorf("parsing model event: %w", err)
	}

	switch head.Type {
	case "transcript":
		var ev transcriptEvent
		if err := json.Unmarshal(msg, &ev); err != nil {
			return err
		}
		if ev.Final {
			m.log.Infow("transcript", "role", ev.Role, "text", ev.Text)
		} else {
			m.log.Debugw("transcript partial", "role", ev.Role, "delta", ev.Delta)
		}
	case "error":
		var ev errorEvent
		if err := json.Unmarshal(msg, &ev); err != nil {
			return err
		}
		m.log.Errorw("model error event", fmt.Errorf("%s", ev.Error))
	case "state":
		var ev stateEvent
		if err := json.Unmarshal(msg, &ev); err != nil {
			return err
		}
		m.log.Infow("model state", "state", ev.State)
	case "call_started":
		var ev callStartedEvent
		if err := json.Unmarshal(msg, &ev); err != nil {
			return err
		}
		m.log.Infow("model call started", "callID", ev.CallID)
	default:
		m.log.Debugw("unhandled model event", "type", head.Type)
	}
	return nil
}
