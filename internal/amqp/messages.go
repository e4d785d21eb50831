package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/ledger"
)

// LedgerChangedMessage announces a committed ledger write to other processes.
// It carries no record data; receivers re-read the ledger from the store.
type LedgerChangedMessage struct {
	ID        string    `json:"id"`
	Origin    string    `json:"origin"`
	Ledger    string    `json:"ledger"`
	Op        ledger.Op `json:"op"`
	Key       string    `json:"key,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerChangedMessage(origin string, c ledger.Change) *LedgerChangedMessage {
	ts := c.At
	if ts.IsZero() {
		ts = time.Now()
	}
	return &LedgerChangedMessage{
		ID:        uuid.NewString(),
		Origin:    origin,
		Ledger:    c.Ledger,
		Op:        c.Op,
		Key:       c.Key,
		Timestamp: ts.UTC(),
	}
}

// Change converts the message back to the in-process form.
func (m *LedgerChangedMessage) Change() ledger.Change {
	return ledger.Change{Ledger: m.Ledger, Op: m.Op, Key: m.Key, At: m.Timestamp}
}

func (m *LedgerChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerChangedMessageFromJSON decodes a message and rejects ones without a ledger name.
func LedgerChangedMessageFromJSON(data []byte) (*LedgerChangedMessage, error) {
	var msg LedgerChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Ledger == "" {
		return nil, errMissingLedger
	}
	return &msg, nil
}
