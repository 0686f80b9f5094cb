package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"golang.org/x/crypto/sha3"
)

// Event is a typed record emitted by a component on a successful call.
// Implementations are plain structs whose JSON field order and names are the
// wire format consumed by indexers.
type Event interface {
	// EventName is the indexer-facing name, e.g. "Transfer".
	EventName() string
	// Signature is the canonical signature hashed into the log topic,
	// e.g. "Transfer(address,address,uint256)".
	Signature() string
}

// EventCategory classifies events for routing and retention.
type EventCategory string

const (
	// CategoryGovernance covers role, rate, mint-agent and pointer changes.
	CategoryGovernance EventCategory = "governance"

	// CategoryLedger covers balance and allowance movements.
	CategoryLedger EventCategory = "ledger"

	// CategoryAction covers requested and verified philanthropic actions.
	CategoryAction EventCategory = "action"
)

var eventCategories = map[string]EventCategory{
	"Authorize":                     CategoryGovernance,
	"EventSetDeliveryRateOfGood":    CategoryGovernance,
	"EventSetVolunteerRateOfGood":   CategoryGovernance,
	"EventSetFundRaisingRateOfGood": CategoryGovernance,
	"EventSetInKindRateOfGood":      CategoryGovernance,
	"MintAgentChanged":              CategoryGovernance,
	"MintFinished":                  CategoryGovernance,
	"EventSetRegistryContract":      CategoryGovernance,
	"EventSetRateOfGoodContract":    CategoryGovernance,

	"Mint":     CategoryLedger,
	"Transfer": CategoryLedger,
	"Approval": CategoryLedger,
}

// CategoryOf returns the category for an event name.
// Unknown names default to CategoryAction.
func CategoryOf(name string) EventCategory {
	if cat, ok := eventCategories[name]; ok {
		return cat
	}
	return CategoryAction
}

// Topic returns the keccak-256 hash of an event signature.
func Topic(signature string) common.Hash {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(signature))
	var out common.Hash
	h.Sum(out[:0])
	return out
}

// Log is a committed event together with its position in ledger history.
type Log struct {
	Seq       uint64
	TxID      uuid.UUID
	Index     int
	Emitter   common.Address
	Name      string
	Category  EventCategory
	Topic     common.Hash
	Args      Event
	Timestamp time.Time
}

// NewLog builds an unsequenced log for ev emitted by emitter.
func NewLog(emitter common.Address, ev Event) Log {
	name := ev.EventName()
	return Log{
		Emitter:  emitter,
		Name:     name,
		Category: CategoryOf(name),
		Topic:    Topic(ev.Signature()),
		Args:     ev,
	}
}

// logEnvelope is the JSON shape shared by receipts, Redis and Kafka.
type logEnvelope struct {
	Seq       uint64          `json:"seq"`
	TxID      string          `json:"tx_id"`
	Index     int             `json:"index"`
	Emitter   common.Address  `json:"emitter"`
	Event     string          `json:"event"`
	Category  EventCategory   `json:"category"`
	Topic     common.Hash     `json:"topic"`
	Args      json.RawMessage `json:"args"`
	Timestamp string          `json:"timestamp"`
}

// MarshalJSON renders the log envelope with Args in declaration order.
func (l Log) MarshalJSON() ([]byte, error) {
	args := json.RawMessage("{}")
	if l.Args != nil {
		raw, err := json.Marshal(l.Args)
		if err != nil {
			return nil, err
		}
		args = raw
	}
	env := logEnvelope{
		Seq:      l.Seq,
		TxID:     l.TxID.String(),
		Index:    l.Index,
		Emitter:  l.Emitter,
		Event:    l.Name,
		Category: l.Category,
		Topic:    l.Topic,
		Args:     args,
	}
	if !l.Timestamp.IsZero() {
		env.Timestamp = l.Timestamp.UTC().Format(time.RFC3339Nano)
	}
	return json.Marshal(env)
}

// Record is a log read back from a transport. Args stay raw because readers
// do not know the emitting component's event types.
type Record struct {
	Seq       uint64
	TxID      uuid.UUID
	Index     int
	Emitter   common.Address
	Name      string
	Category  EventCategory
	Topic     common.Hash
	Args      json.RawMessage
	Timestamp time.Time
}

// DecodeRecord parses the envelope written by Log.MarshalJSON.
func DecodeRecord(data []byte) (Record, error) {
	var env logEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Record{}, fmt.Errorf("decode log envelope: %w", err)
	}
	if env.Event == "" {
		return Record{}, errors.New("log envelope has no event name")
	}
	txID, err := uuid.Parse(env.TxID)
	if err != nil {
		return Record{}, fmt.Errorf("decode log tx_id: %w", err)
	}
	r := Record{
		Seq:      env.Seq,
		TxID:     txID,
		Index:    env.Index,
		Emitter:  env.Emitter,
		Name:     env.Event,
		Category: env.Category,
		Topic:    env.Topic,
		Args:     env.Args,
	}
	if r.Category == "" {
		r.Category = CategoryOf(r.Name)
	}
	if env.Timestamp != "" {
		if r.Timestamp, err = time.Parse(time.RFC3339Nano, env.Timestamp); err != nil {
			return Record{}, fmt.Errorf("decode log timestamp: %w", err)
		}
	}
	return r, nil
}
