package buffer

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	EntityProfile = "profile"
	EntityTask    = "task"

	OperationCreate = "create"
	OperationUpdate = "update"
	OperationDelete = "delete"

	// Lower values drain first.
	PriorityTask    = 2
	PriorityProfile = 3
	priorityMax     = 9
)

// Item is a task or profile write replayed once the primary store is reachable again.
type Item struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Entity    string          `json:"entity"`
	Operation string          `json:"operation"`
	Data      json.RawMessage `json:"data"`
	Priority  int             `json:"priority"`
	Retries   int             `json:"retries"`
	Timestamp time.Time       `json:"timestamp"`

	bucketKey []byte
}

// NewItem encodes payload as the item data and picks the drain priority of entity.
func NewItem(entity, operation, userID string, payload interface{}) (Item, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Item{}, fmt.Errorf("encode %s %s: %w", entity, operation, err)
	}
	return Item{
		UserID:    userID,
		Entity:    entity,
		Operation: operation,
		Data:      data,
		Priority:  priorityOf(entity),
	}, nil
}

// Decode unmarshals the item data into dst.
func (i Item) Decode(dst interface{}) error {
	if len(i.Data) == 0 {
		return fmt.Errorf("buffered %s %s has no data", i.Entity, i.Operation)
	}
	return json.Unmarshal(i.Data, dst)
}

func priorityOf(entity string) int {
	if entity == EntityTask {
		return PriorityTask
	}
	return PriorityProfile
}

func (i *Item) normalize() {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.Priority <= 0 || i.Priority > priorityMax {
		i.Priority = priorityOf(i.Entity)
	}
	if i.Timestamp.IsZero() {
		i.Timestamp = time.Now()
	}
}

// key orders items by priority, then age, so a cursor walk drains oldest task writes first.
func (i Item) key() []byte {
	return []byte(fmt.Sprintf("%d_%020d_%s", i.Priority, i.Timestamp.UnixNano(), i.ID))
}
