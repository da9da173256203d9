package services

import (
	"context"
	"fmt"

	"github.com/fastygo/questboard/domain"
	"github.com/fastygo/questboard/internal/infrastructure/buffer"
	"github.com/fastygo/questboard/usecase"
)

// BufferBridge adapts the BufferProcessor to the use case OperationBuffer port.
type BufferBridge struct {
	processor *BufferProcessor
}

func NewBufferBridge(processor *BufferProcessor) *BufferBridge {
	return &BufferBridge{processor: processor}
}

func (b *BufferBridge) BufferProfile(ctx context.Context, operation string, user *domain.User) error {
	if b.processor == nil || user == nil {
		return domain.ErrInvalidPayload
	}
	return b.enqueue(ctx, buffer.EntityProfile, operation, user.ID, user)
}

func (b *BufferBridge) BufferTask(ctx context.Context, operation string, task *domain.Task) error {
	if b.processor == nil || task == nil {
		return domain.ErrInvalidPayload
	}
	if operation != buffer.OperationCreate && operation != buffer.OperationUpdate && operation != buffer.OperationDelete {
		return domain.WrapError(domain.ErrCodeInvalid, "task operation cannot be buffered", fmt.Errorf("operation %q", operation))
	}
	return b.enqueue(ctx, buffer.EntityTask, operation, task.UserID, task)
}

func (b *BufferBridge) enqueue(ctx context.Context, entity, operation, userID string, payload interface{}) error {
	item, err := buffer.NewItem(entity, operation, userID, payload)
	if err != nil {
		return err
	}
	return b.processor.BufferOperation(ctx, item)
}

var _ usecase.OperationBuffer = (*BufferBridge)(nil)
