package repositories

import (
	"context"
	"encoding/json"
	"time"

	"chat-relay/domain"

	"github.com/dgraph-io/badger/v4"
)

// UpsertIdentity stores the durable record for a display name. The name is
// the key: reconnecting under the same name overwrites the previous record.
func (s *Store) UpsertIdentity(ctx context.Context, name, connID string, online bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	record := domain.IdentityRecord{
		DisplayName:  name,
		ConnectionID: connID,
		Online:       online,
		LastSeen:     time.Now().UTC(),
	}
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(identityKeyPrefix+name), data)
	})
}

// ListOnlineIdentities scans the identity records and keeps the ones
// currently marked online.
func (s *Store) ListOnlineIdentities(ctx context.Context) ([]domain.IdentityRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var records []domain.IdentityRecord
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(identityKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var record domain.IdentityRecord
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &record)
			}); err != nil {
				return err
			}
			if record.Online {
				records = append(records, record)
			}
		}
		return nil
	})
	return records, err
}
