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

import "errors"

var (
	// ErrNotFound is returned when a document or record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrStorageClosed is returned for operations on a closed store.
	ErrStorageClosed = errors.New("storage is closed")

	// ErrInvalidQuery is returned for malformed repository arguments, such as
	// a missing model name or mismatched text and vector counts.
	ErrInvalidQuery = errors.New("invalid query parameters")

	// ErrSerializationFailed wraps decoding failures of stored values.
	ErrSerializationFailed = errors.New("serialization failed")

	// ErrTruncatedData is returned when a stored value ends early.
	ErrTruncatedData = errors.New("truncated data")
)
