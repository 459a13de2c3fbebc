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

// Package storage defines the persistence boundary for themeconv.
//
// The pipeline and orchestrator depend only on the interfaces declared here,
// so a JSON file backend (package file) and an embedded key-value backend
// (package badger) can be used interchangeably.
//
// # Stores
//
//   - FingerprintStore: append-only registry of transformed fragments keyed by
//     skeleton fingerprint. Records are immutable once written.
//   - UsageLedger: per-call token counters, last write wins per key.
//   - OutputStore: the completed results of one document. Its key set is the
//     resumption checkpoint.
//   - DiagnosticSink: best-effort capture of malformed service output.
//
// # Thread Safety
//
// All implementations must be safe for concurrent use by the orchestrator's
// workers. Whole-file rewrites use atomic replace so readers never observe a
// partial write.
//
// # Context Support
//
// All methods accept context.Context. File backends check it before doing
// any I/O; pass context.Background() when no deadline applies.
package storage
