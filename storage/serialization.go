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

package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/foduucom/themeconv/core"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// cacheRecordMUS encodes a CacheRecord as a sequence of length-prefixed
// strings followed by the insertion time in Unix microseconds.
// The result is carried as its JSON encoding.
var cacheRecordMUS = cacheRecordSerializer{}

type cacheRecordWire struct {
	name        string
	fingerprint string
	skeleton    string
	result      string
	insertedAt  int64
}

type cacheRecordSerializer struct{}

func (cacheRecordSerializer) Marshal(w cacheRecordWire, bs []byte) (n int) {
	n = ord.String.Marshal(w.name, bs)
	n += ord.String.Marshal(w.fingerprint, bs[n:])
	n += ord.String.Marshal(w.skeleton, bs[n:])
	n += ord.String.Marshal(w.result, bs[n:])
	n += varint.Int64.Marshal(w.insertedAt, bs[n:])
	return n
}

func (cacheRecordSerializer) Unmarshal(bs []byte) (w cacheRecordWire, n int, err error) {
	var n1 int
	if w.name, n1, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	n += n1
	if w.fingerprint, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if w.skeleton, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if w.result, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if w.insertedAt, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	return
}

func (cacheRecordSerializer) Size(w cacheRecordWire) (size int) {
	size = ord.String.Size(w.name)
	size += ord.String.Size(w.fingerprint)
	size += ord.String.Size(w.skeleton)
	size += ord.String.Size(w.result)
	return size + varint.Int64.Size(w.insertedAt)
}

// MarshalCacheRecord serializes a CacheRecord to bytes.
func MarshalCacheRecord(record *core.CacheRecord) ([]byte, error) {
	result, err := json.Marshal(record.Result)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	w := cacheRecordWire{
		name:        record.Name,
		fingerprint: string(record.Fingerprint),
		skeleton:    string(record.Skeleton),
		result:      string(result),
		insertedAt:  record.InsertedAt.UnixMicro(),
	}
	buf := make([]byte, cacheRecordMUS.Size(w))
	cacheRecordMUS.Marshal(w, buf)
	return buf, nil
}

// UnmarshalCacheRecord deserializes a CacheRecord from bytes.
func UnmarshalCacheRecord(data []byte) (*core.CacheRecord, error) {
	if len(data) == 0 {
		return nil, ErrTruncatedData
	}
	w, _, err := cacheRecordMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	record := &core.CacheRecord{
		Name:        w.name,
		Fingerprint: core.Fingerprint(w.fingerprint),
		Skeleton:    core.Skeleton(w.skeleton),
		InsertedAt:  time.UnixMicro(w.insertedAt).UTC(),
	}
	if err := json.Unmarshal([]byte(w.result), &record.Result); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return record, nil
}
