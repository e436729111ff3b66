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


package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/poiesic/ragcore/core"
)

// Metadata keys set on loaded documents.
const (
	MetaSource     = "source"
	MetaPage       = "page"
	MetaTotalPages = "total_pages"
)

var (
	// ErrUnsupportedFormat is returned for files whose extension has no reader.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrInvalidEncoding is returned for text files that are not valid UTF-8.
	ErrInvalidEncoding = errors.New("document is not valid UTF-8")

	// ErrDuplicateDocument is returned when two inputs produce the same document ID.
	ErrDuplicateDocument = errors.New("duplicate document id")
)

// Loader reads files into documents.
type Loader struct {
	logger *slog.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New creates a Loader.
func New(opts ...Option) *Loader {
	l := &Loader{logger: slog.Default()}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.With("component", "loader")
	return l
}

// Supported reports whether path has an extension the loader can read.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf", ".txt", ".md", ".markdown":
		return true
	}
	return false
}

// LoadFile reads a single file. PDFs yield one document per page; text files
// yield one document.
func (l *Loader) LoadFile(path string) ([]core.Document, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return l.LoadPDF(path)
	case ".txt", ".md", ".markdown":
		doc, err := l.LoadText(path)
		if err != nil {
			return nil, err
		}
		return []core.Document{doc}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// LoadPaths loads files and directories in the order given. Directories are
// walked in lexical order and files with unsupported extensions inside them
// are skipped; an unsupported file named explicitly is an error.
func (l *Loader) LoadPaths(paths ...string) ([]core.Document, error) {
	var docs []core.Document
	seen := make(map[string]string)

	add := func(path string) error {
		loaded, err := l.LoadFile(path)
		if err != nil {
			return err
		}
		for _, doc := range loaded {
			if prev, ok := seen[doc.ID]; ok {
				return fmt.Errorf("%w: %s from %s and %s", ErrDuplicateDocument, doc.ID, prev, path)
			}
			seen[doc.ID] = path
		}
		docs = append(docs, loaded...)
		return nil
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			if err := add(root); err != nil {
				return nil, err
			}
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if !Supported(path) {
				l.logger.Debug("skipping unsupported file", "path", path)
				return nil
			}
			return add(path)
		})
		if err != nil {
			return nil, err
		}
	}
	return docs, nil
}

// LoadText reads a UTF-8 text file as a single document named after the file.
func (l *Loader) LoadText(path string) (core.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return core.Document{}, err
	}
	if !utf8.Valid(data) {
		return core.Document{}, fmt.Errorf("%w: %s", ErrInvalidEncoding, path)
	}

	l.logger.Debug("loaded text file", "path", path, "bytes", len(data))
	return core.Document{
		ID:       filepath.Base(path),
		Text:     string(data),
		Metadata: map[string]string{MetaSource: path},
	}, nil
}

// LoadPDF extracts the plain text of every page. Page n becomes document
// "<file name>#p<n>". Pages without content yield empty documents so page
// numbering stays intact.
func (l *Loader) LoadPDF(path string) (docs []core.Document, err error) {
	// The pdf reader panics on some malformed streams.
	defer func() {
		if r := recover(); r != nil {
			docs, err = nil, fmt.Errorf("read pdf %s: %v", path, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	total := r.NumPage()
	base := filepath.Base(path)
	docs = make([]core.Document, 0, total)

	for n := 1; n <= total; n++ {
		var text string
		page := r.Page(n)
		if !page.V.IsNull() {
			text, err = page.GetPlainText(nil)
			if err != nil {
				return nil, fmt.Errorf("read pdf %s page %d: %w", path, n, err)
			}
			// Undecodable glyphs must not reach the chunker as invalid UTF-8.
			text = strings.ToValidUTF8(text, "\uFFFD")
		}

		docs = append(docs, core.Document{
			ID:   base + "#p" + strconv.Itoa(n),
			Text: text,
			Metadata: map[string]string{
				MetaSource:     path,
				MetaPage:       strconv.Itoa(n),
				MetaTotalPages: strconv.Itoa(total),
			},
		})
	}

	l.logger.Debug("loaded pdf", "path", path, "pages", total)
	return docs, nil
}
