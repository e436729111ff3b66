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


package query

import "github.com/poiesic/ragcore/core"

// Monitor receives callbacks at each stage of answering a question.
// Callbacks run synchronously on the calling goroutine.
type Monitor interface {
	Start(question string)
	AfterEmbedding(vector []float32)
	AfterRetrieval(hits []core.SearchHit)
	AfterAssembly(used []core.SearchHit, contextChars int)
	Finish(result *core.QueryResult)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                          {}
func (n *noopMonitor) AfterEmbedding(_ []float32)              {}
func (n *noopMonitor) AfterRetrieval(_ []core.SearchHit)       {}
func (n *noopMonitor) AfterAssembly(_ []core.SearchHit, _ int) {}
func (n *noopMonitor) Finish(_ *core.QueryResult)              {}
