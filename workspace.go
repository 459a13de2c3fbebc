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

// Package themeconv converts extracted HTML fragments into shortcodes
// through an external transformation service, skipping fragments whose
// structure has already been converted.
package themeconv

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/foduucom/themeconv/ai"
	"github.com/foduucom/themeconv/ai/openai"
	"github.com/foduucom/themeconv/core"
	"github.com/foduucom/themeconv/dedup"
	"github.com/foduucom/themeconv/orchestrator"
	"github.com/foduucom/themeconv/pipeline"
	"github.com/foduucom/themeconv/storage"
	"github.com/foduucom/themeconv/storage/badger"
	"github.com/foduucom/themeconv/storage/file"
)

// Files and directories kept under a workspace directory.
const (
	FingerprintFile = "processed_blocks.json"
	LedgerFile      = "expense.json"
	DiagnosticsDir  = "bad_outputs"
	BadgerDir       = "fingerprints.db"
)

// Backend selects the fingerprint store implementation.
type Backend string

const (
	BackendFile   Backend = "file"
	BackendBadger Backend = "badger"
)

// ErrUnknownBackend is returned for a Backend other than the ones above.
var ErrUnknownBackend = errors.New("unknown storage backend")

// Workspace owns the stores shared by every document of a conversion: the
// fingerprint store, the usage ledger and the diagnostics directory, plus
// the transformation service.
type Workspace struct {
	dir         string
	backend     *badger.Backend
	store       storage.FingerprintStore
	ledger      *file.UsageLedger
	diagnostics *file.DiagnosticDir
	provider    ai.Provider
	base        *slog.Logger
	logger      *slog.Logger
}

// WorkspaceOption configures a Workspace.
type WorkspaceOption func(*workspaceOptions)

type workspaceOptions struct {
	aiConfig *ai.Config
	provider ai.Provider
	backend  Backend
	logger   *slog.Logger
}

// WithAIConfig sets the transformation service configuration.
func WithAIConfig(config *ai.Config) WorkspaceOption {
	return func(o *workspaceOptions) {
		o.aiConfig = config
	}
}

// WithProvider supplies a ready provider instead of building one from the
// AI config. The Workspace takes ownership and closes it.
func WithProvider(provider ai.Provider) WorkspaceOption {
	return func(o *workspaceOptions) {
		o.provider = provider
	}
}

// WithBackend selects the fingerprint store. Default is BackendFile.
func WithBackend(backend Backend) WorkspaceOption {
	return func(o *workspaceOptions) {
		o.backend = backend
	}
}

// WithLogger sets the logger handed to every component.
func WithLogger(logger *slog.Logger) WorkspaceOption {
	return func(o *workspaceOptions) {
		o.logger = logger
	}
}

// OpenWorkspace opens or creates the workspace under dir.
func OpenWorkspace(dir string, opts ...WorkspaceOption) (*Workspace, error) {
	options := &workspaceOptions{
		aiConfig: ai.DefaultConfig(),
		backend:  BackendFile,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	ws := &Workspace{
		dir:         dir,
		diagnostics: file.NewDiagnosticDir(filepath.Join(dir, DiagnosticsDir)),
		base:        options.logger,
		logger:      options.logger.With("component", "workspace"),
	}

	switch options.backend {
	case BackendFile:
		store, err := file.OpenFingerprintStore(filepath.Join(dir, FingerprintFile), file.WithLogger(options.logger))
		if err != nil {
			return nil, err
		}
		ws.store = store
	case BackendBadger:
		backend, err := badger.OpenBackend(filepath.Join(dir, BadgerDir), false)
		if err != nil {
			return nil, err
		}
		store, err := badger.NewFingerprintStore(backend)
		if err != nil {
			backend.Close()
			return nil, err
		}
		ws.backend = backend
		ws.store = store
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, options.backend)
	}

	ledger, err := file.NewUsageLedger(filepath.Join(dir, LedgerFile), file.WithLogger(options.logger))
	if err != nil {
		ws.closeStores()
		return nil, err
	}
	ws.ledger = ledger

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			ws.closeStores()
			return nil, err
		}
	}
	ws.provider = provider

	ws.logger.Info("workspace opened", "dir", dir, "backend", options.backend)
	return ws, nil
}

// Close releases the provider and the stores.
func (ws *Workspace) Close() error {
	if err := ws.provider.Close(); err != nil {
		ws.logger.Error("error closing provider", "err", err)
	}
	return ws.closeStores()
}

func (ws *Workspace) closeStores() error {
	var errs []error
	if ws.store != nil {
		if err := ws.store.Close(); err != nil {
			ws.logger.Error("error closing fingerprint store", "err", err)
			errs = append(errs, err)
		}
	}
	if ws.backend != nil {
		if err := ws.backend.Close(); err != nil {
			ws.logger.Error("error closing backend storage", "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Dir returns the workspace directory.
func (ws *Workspace) Dir() string {
	return ws.dir
}

func (ws *Workspace) FingerprintStore() storage.FingerprintStore {
	return ws.store
}

func (ws *Workspace) UsageLedger() storage.UsageLedger {
	return ws.ledger
}

func (ws *Workspace) Diagnostics() storage.DiagnosticSink {
	return ws.diagnostics
}

func (ws *Workspace) Provider() ai.Provider {
	return ws.provider
}

// NewMatcher returns a matcher over the workspace's fingerprint store.
func (ws *Workspace) NewMatcher(opts ...dedup.Option) (*dedup.Matcher, error) {
	return dedup.NewMatcher(ws.store, append([]dedup.Option{dedup.WithLogger(ws.base)}, opts...)...)
}

// NewPipeline builds a pipeline over the workspace stores. Diagnostics go
// to the workspace unless opts override them.
func (ws *Workspace) NewPipeline(opts ...pipeline.Option) (*pipeline.Pipeline, error) {
	base := []pipeline.Option{
		pipeline.WithDiagnostics(ws.diagnostics),
		pipeline.WithLogger(ws.base),
	}
	return pipeline.New(ws.provider.Transformer(), ws.store, ws.ledger, append(base, opts...)...)
}

// NewOrchestrator returns an orchestrator running documents through p.
// The caller must Release it.
func (ws *Workspace) NewOrchestrator(p *pipeline.Pipeline, opts ...orchestrator.Option) (*orchestrator.Orchestrator, error) {
	base := []orchestrator.Option{orchestrator.WithLogger(ws.base)}
	return orchestrator.New(p, append(base, opts...)...)
}

// Summarize prices every ledger entry.
func (ws *Workspace) Summarize(ctx context.Context, pricing core.Pricing) (core.UsageSummary, error) {
	return ws.ledger.Summarize(ctx, pricing)
}
