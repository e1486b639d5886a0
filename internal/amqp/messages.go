package amqp

import (
	"encoding/json"
	"time"
)

// Routing keys published on the exchange.
const (
	RoutingWorkDayAssigned   = "workday.assigned"
	RoutingWorkDayUnassigned = "workday.unassigned"
	RoutingEmailSend         = "email.send"
)

// WorkDayEvent announces that a date's assignment changed.
// ClientID is empty for removals.
type WorkDayEvent struct {
	AccountID string    `json:"account_id"`
	Date      string    `json:"date"`
	ClientID  string    `json:"client_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewWorkDayEvent(accountID, date, clientID string) *WorkDayEvent {
	return &WorkDayEvent{
		AccountID: accountID,
		Date:      date,
		ClientID:  clientID,
		Timestamp: time.Now().UTC(),
	}
}

// RoutingKey picks the key from whether a client is set.
func (e *WorkDayEvent) RoutingKey() string {
	if e.ClientID == "" {
		return RoutingWorkDayUnassigned
	}
	return RoutingWorkDayAssigned
}

func (e *WorkDayEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EmailMessage is handed to an external mail relay.
type EmailMessage struct {
	To        string    `json:"to"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Link      string    `json:"link"`
	Timestamp time.Time `json:"timestamp"`
}

func NewEmailMessage(to, subject, body, link string) *EmailMessage {
	return &EmailMessage{
		To:        to,
		Subject:   subject,
		Body:      body,
		Link:      link,
		Timestamp: time.Now().UTC(),
	}
}

func (m *EmailMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// EmailMessageFromJSON decodes a message as the relay would.
func EmailMessageFromJSON(data []byte) (*EmailMessage, error) {
	var msg EmailMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// WorkDayEventFromJSON decodes a work day event.
func WorkDayEventFromJSON(data []byte) (*WorkDayEvent, error) {
	var e WorkDayEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
