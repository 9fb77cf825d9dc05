// Package realtime carries chat events between the server and connected
// websocket clients. A Hub tracks connections and their room subscriptions;
// each connection runs gorilla read/write pumps with a buffered outbound
// queue so one slow client never blocks a broadcast.
package realtime

import (
	"encoding/json"

	"github.com/quotechat/backend/store"
)

// Event names on the wire. Inbound events come from clients, outbound events
// are emitted by the server.
const (
	EventJoinChat       = "join_chat"       // inbound: data is a chat id string
	EventToggleAutoSend = "toggle_auto_send" // inbound: data is a bool
	EventNewMessage     = "new_message"      // outbound: NewMessagePayload
	EventNotification   = "random_message_notification" // outbound: NotificationPayload
	EventAutoSendStatus = "auto_send_status" // outbound: bool, only to the toggling client
)

// Envelope is the wire frame for every event in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// NewMessagePayload announces a persisted message to a chat room.
type NewMessagePayload struct {
	ChatID  string        `json:"chatId"`
	Message store.Message `json:"message"`
}

// NotificationPayload tells every client which chat just received a broadcast.
type NotificationPayload struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func encodeEvent(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}
