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

package mock

import "github.com/foduucom/themeconv/ai"

// MockProvider is a test double for ai.Provider.
type MockProvider struct {
	transformer *MockTransformer
}

// NewMockProvider creates a new mock provider with a default mock transformer.
//
// Returns ai.Provider interface for consistency with production constructors.
// Use GetMockTransformer() to access the concrete type for test assertions.
func NewMockProvider() ai.Provider {
	return &MockProvider{transformer: NewMockTransformer()}
}

// NewMockProviderWithTransformer creates a mock provider around t.
func NewMockProviderWithTransformer(t *MockTransformer) ai.Provider {
	return &MockProvider{transformer: t}
}

// Transformer returns the mock transformer.
func (p *MockProvider) Transformer() ai.Transformer {
	return p.transformer
}

// Close is a no-op for mock provider.
func (p *MockProvider) Close() error {
	return nil
}

// GetMockTransformer returns the underlying mock for test assertions.
func (p *MockProvider) GetMockTransformer() *MockTransformer {
	return p.transformer
}
