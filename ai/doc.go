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

// Package ai defines the boundary to the external transformation service.
//
// The pipeline depends only on the Transformer interface: a fragment and a
// prompt go in, a structured shortcode and token usage come out. Two
// outcomes are kept apart. A call-level error (transport failure, service
// unavailable) fails the whole request and is retried by the caller as a
// round. A malformed answer to one fragment is reported per item through
// ItemResult.Err so the remaining items of a batch still succeed.
//
// # Implementation Packages
//
//   - ai/openai: Production implementation using OpenAI-compatible chat APIs
//   - ai/mock: Scriptable test doubles
//
// Public constructors (openai.NewProvider, openai.NewTransformer) return
// interface types. Test constructors (mock.NewMockTransformer) return
// concrete types so tests can inject behavior and inspect call counts.
//
// # Usage Example
//
//	cfg := ai.NewConfig(ai.WithModel("gpt-4o-mini"))
//	provider, err := openai.NewProvider(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	sc, usage, err := provider.Transformer().Transform(ctx, prompt, fragment)
package ai
