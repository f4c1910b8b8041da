package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"chat-relay/domain"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"
)

// AppendMessage persists a message and returns the key it was stored
// under. The caller adopts that key as the message id, so durable history
// and the broadcast agree on identifiers.
func (s *Store) AppendMessage(ctx context.Context, msg domain.ChatMessage) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key := fmt.Sprintf(messageKeyFormat, msg.Scope, msg.CreatedAt.UnixNano(), msg.ID)
	stored := msg
	stored.ID = key

	data, err := json.Marshal(stored)
	if err != nil {
		return "", err
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
	if err != nil {
		return "", err
	}
	return key, nil
}

// ListMessages returns one page of history for a scope. Page 1 holds the
// most recent messages; within a page the order is chronological.
func (s *Store) ListMessages(ctx context.Context, scope domain.Scope, page, pageSize int) ([]domain.ChatMessage, error) {
	prefix := fmt.Sprintf("msg:%s:", scope)
	return s.scan(ctx, []byte(prefix), page, pageSize, nil)
}

// ListPrivateMessages pages through the private history involving one
// participant, on either side of the conversation.
func (s *Store) ListPrivateMessages(ctx context.Context, connID string, page, pageSize int) ([]domain.ChatMessage, error) {
	prefix := fmt.Sprintf("msg:%s:", domain.ScopePrivate)
	keep := func(msg domain.ChatMessage) bool {
		return msg.SenderConnectionID == connID || msg.RecipientConnectionID == connID
	}
	return s.scan(ctx, []byte(prefix), page, pageSize, keep)
}

// scan walks a message prefix newest-first, skips past earlier pages and
// returns the requested page in chronological order.
func (s *Store) scan(ctx context.Context, prefix []byte, page, pageSize int, keep func(domain.ChatMessage) bool) ([]domain.ChatMessage, error) {
	if page < 1 {
		page = 1
	}
	skip := (page - 1) * pageSize

	var messages []domain.ChatMessage
	err := s.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		// 0xff sorts after every digit and uuid byte, so seeking to
		// prefix+0xff lands on the newest key of the prefix.
		seekKey := append(append([]byte{}, prefix...), 0xff)
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var msg domain.ChatMessage
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &msg)
			}); err != nil {
				return err
			}
			if keep != nil && !keep(msg) {
				continue
			}
			if skip > 0 {
				skip--
				continue
			}
			messages = append(messages, msg)
			if len(messages) == pageSize {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lo.Reverse(messages), nil
}
