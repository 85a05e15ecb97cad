package database

import (
	"context"

	"github.com/google/uuid"
)

const createChatMessage = `
INSERT INTO chat_messages (order_id, sender_id, message)
VALUES ($1, $2, $3)
RETURNING id, order_id, sender_id, message, is_read, created_at
`

type CreateChatMessageParams struct {
	OrderID  uuid.UUID
	SenderID uuid.UUID
	Message  string
}

func (q *Queries) CreateChatMessage(ctx context.Context, arg CreateChatMessageParams) (ChatMessage, error) {
	row := q.db.QueryRow(ctx, createChatMessage, arg.OrderID, arg.SenderID, arg.Message)
	var m ChatMessage
	err := row.Scan(&m.ID, &m.OrderID, &m.SenderID, &m.Message, &m.IsRead, &m.CreatedAt)
	return m, err
}

const listChatMessagesByOrder = `
SELECT id, order_id, sender_id, message, is_read, created_at
FROM chat_messages
WHERE order_id = $1
ORDER BY created_at ASC
`

// ListChatMessagesByOrder returns the full history oldest-first, matching the
// append-only ordering clients maintain locally.
func (q *Queries) ListChatMessagesByOrder(ctx context.Context, orderID uuid.UUID) ([]ChatMessage, error) {
	rows, err := q.db.Query(ctx, listChatMessagesByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []ChatMessage
	for rows.Next() {
		var m ChatMessage
		if err := rows.Scan(&m.ID, &m.OrderID, &m.SenderID, &m.Message, &m.IsRead, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

const markChatMessagesRead = `
UPDATE chat_messages
SET is_read = true
WHERE order_id = $1 AND sender_id <> $2 AND is_read = false
`

type MarkChatMessagesReadParams struct {
	OrderID  uuid.UUID
	ReaderID uuid.UUID
}

func (q *Queries) MarkChatMessagesRead(ctx context.Context, arg MarkChatMessagesReadParams) error {
	_, err := q.db.Exec(ctx, markChatMessagesRead, arg.OrderID, arg.ReaderID)
	return err
}

const isOrderParticipant = `
SELECT EXISTS (
	SELECT 1
	FROM orders o
	JOIN businesses b ON b.id = o.business_id
	WHERE o.id = $1 AND (o.created_by = $2 OR b.owner_id = $2)
)
`

type IsOrderParticipantParams struct {
	OrderID uuid.UUID
	UserID  uuid.UUID
}

// IsOrderParticipant reports whether the user is the ordering customer or the
// owner of the business fulfilling the order.
func (q *Queries) IsOrderParticipant(ctx context.Context, arg IsOrderParticipantParams) (bool, error) {
	var ok bool
	err := q.db.QueryRow(ctx, isOrderParticipant, arg.OrderID, arg.UserID).Scan(&ok)
	return ok, err
}
