// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package badger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/foduucom/themeconv/core"
	"github.com/foduucom/themeconv/storage"
)

// FingerprintStore implements storage.FingerprintStore on BadgerDB.
//
// Records are stored as an append-only log under sequence-ordered keys with a
// separate fingerprint index, so appends never rewrite earlier records and
// concurrent writers are serialized by Badger's transactions.
type FingerprintStore struct {
	backend *Backend
	seq     *badger.Sequence
	logger  *slog.Logger
}

var _ storage.FingerprintStore = (*FingerprintStore)(nil)

// NewFingerprintStore creates a FingerprintStore over an open backend.
// The backend remains owned by the caller.
func NewFingerprintStore(backend *Backend) (*FingerprintStore, error) {
	seq, err := backend.GetSequence(fingerprintSeq)
	if err != nil {
		return nil, err
	}
	return &FingerprintStore{
		backend: backend,
		seq:     seq,
		logger:  backend.logger.With("store", "fingerprint"),
	}, nil
}

// Close releases the record sequence.
func (s *FingerprintStore) Close() error {
	return s.seq.Release()
}

// Append adds a record to the log and indexes its fingerprint.
func (s *FingerprintStore) Append(ctx context.Context, record *core.CacheRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := core.ValidateFingerprint(record.Fingerprint); err != nil {
		return errors.Join(storage.ErrInvalidRecord, err)
	}
	if record.InsertedAt.IsZero() {
		record.InsertedAt = time.Now().UTC()
	}

	value, err := storage.MarshalCacheRecord(record)
	if err != nil {
		return err
	}

	err = s.backend.WithTx(func(tx *badger.Txn) error {
		indexKey := makeIndexKey(record.Fingerprint)
		if _, err := tx.Get(indexKey); err == nil {
			return storage.ErrDuplicateKey
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		next, err := s.seq.Next()
		if err != nil {
			return err
		}
		recordKey := makeRecordKey(next)
		if err := tx.Set(recordKey, value); err != nil {
			return err
		}
		if err := tx.Set(indexKey, recordKey); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if errors.Is(err, badger.ErrConflict) {
		// A concurrent writer indexed the same fingerprint first.
		return storage.ErrDuplicateKey
	}
	return err
}

// Records returns all records in insertion order.
func (s *FingerprintStore) Records(ctx context.Context) ([]*core.CacheRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var records []*core.CacheRecord
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(fingerprintRecordPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				record, err := storage.UnmarshalCacheRecord(val)
				if err != nil {
					return err
				}
				records = append(records, record)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	return records, err
}

// Get retrieves the record indexed under fp.
// Returns storage.ErrNotFound if no record has that fingerprint.
func (s *FingerprintStore) Get(ctx context.Context, fp core.Fingerprint) (*core.CacheRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var record *core.CacheRecord
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeIndexKey(fp))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		recordKey, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		item, err = tx.Get(recordKey)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			record, err = storage.UnmarshalCacheRecord(val)
			return err
		})
	}, false)
	return record, err
}
