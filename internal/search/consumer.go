package search

import (
	"context"
	"encoding/json"

	"notesync/internal/constant"
	"notesync/internal/dto"
	"notesync/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// IndexConsumer drains the reindex topics and forwards batches to the
// Index. Sync and local edits publish fire-and-forget; this is the only
// place index work actually happens.
type IndexConsumer struct {
	pubSub *gochannel.GoChannel
	index  Index
	logger logger.ILogger
}

func NewIndexConsumer(pubSub *gochannel.GoChannel, index Index, log logger.ILogger) *IndexConsumer {
	return &IndexConsumer{
		pubSub: pubSub,
		index:  index,
		logger: log,
	}
}

func (c *IndexConsumer) Consume(ctx context.Context) error {
	reindex, err := c.pubSub.Subscribe(ctx, constant.TopicReindexNotes)
	if err != nil {
		return err
	}
	remove, err := c.pubSub.Subscribe(ctx, constant.TopicRemoveNotesFromIndex)
	if err != nil {
		return err
	}

	go func() {
		for msg := range reindex {
			c.processReindex(ctx, msg)
		}
	}()
	go func() {
		for msg := range remove {
			c.processRemove(ctx, msg)
		}
	}()

	return nil
}

func (c *IndexConsumer) processReindex(ctx context.Context, msg *message.Message) {
	var payload dto.ReindexNotesMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		c.logger.Error("search", "failed to unmarshal reindex message", map[string]interface{}{"error": err.Error()})
		// Ack malformed messages, retrying cannot fix them.
		msg.Ack()
		return
	}

	if err := c.index.Reindex(ctx, payload.NoteIds); err != nil {
		c.logger.Error("search", "reindex failed", map[string]interface{}{
			"error": err.Error(),
			"notes": len(payload.NoteIds),
		})
		msg.Nack()
		return
	}
	msg.Ack()
}

func (c *IndexConsumer) processRemove(ctx context.Context, msg *message.Message) {
	var payload dto.RemoveNotesFromIndexMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		c.logger.Error("search", "failed to unmarshal index removal message", map[string]interface{}{"error": err.Error()})
		msg.Ack()
		return
	}

	if err := c.index.Remove(ctx, payload.NoteIds); err != nil {
		c.logger.Error("search", "index removal failed", map[string]interface{}{
			"error": err.Error(),
			"notes": len(payload.NoteIds),
		})
		msg.Nack()
		return
	}
	msg.Ack()
}
