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


// Package ai provides abstractions for the AI services used by ragcore.
//
// The retrieval core never talks to a model directly. It depends on the
// interfaces defined here:
//
//   - Embedder: maps text to fixed-length vectors
//   - Generator: answers a question from supplied context
//   - AIProvider: aggregates both for convenient initialization
//
// # Implementation Packages
//
//   - ai/ollama: native Ollama API via langchaingo
//   - ai/openai: OpenAI-compatible APIs via langchaingo
//   - ai/langchain: adapters shared by both backends
//   - ai/mock: deterministic test doubles
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewProvider, ollama.NewProvider) return
// INTERFACE types so callers depend on the abstraction only.
//
//	provider, err := ollama.NewProvider(ai.DefaultConfig())  // returns ai.AIProvider
//
// Test constructors (mock.NewMockEmbedder, mock.NewMockGenerator) return
// CONCRETE types so tests can inject behavior and assert on call counts.
//
// # Usage Example
//
//	provider, err := ollama.NewProvider(ai.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vec, err := provider.Embedder().EmbedText(ctx, "Hello world")
//	answer, err := provider.Generator().Generate(ctx, instruction, context, "What is it?")
package ai
