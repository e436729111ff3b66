package badger

import "github.com/poiesic/ragcore/storage"

// Repositories groups the repositories sharing one backend.
type Repositories struct {
	Documents storage.DocumentRepository
	Cache     storage.EmbeddingCache
	Manifests storage.ManifestRepository
	Backend   *Backend
}

// Close closes the repositories and then the backend.
func (r *Repositories) Close() error {
	r.Documents.Close()
	r.Cache.Close()
	return r.Backend.Close()
}

// OpenRepositories opens a store at path and creates every repository on it.
// Caller must Close the result when done.
func OpenRepositories(path string) (*Repositories, error) {
	return openRepositories(path, false)
}

// NewMemoryRepositories creates in-memory repositories for testing.
// Caller must Close the result when done.
func NewMemoryRepositories() (*Repositories, error) {
	return openRepositories("", true)
}

func openRepositories(path string, inMemory bool) (*Repositories, error) {
	backend, err := OpenBackend(path, inMemory)
	if err != nil {
		return nil, err
	}
	return &Repositories{
		Documents: NewDocumentRepository(backend),
		Cache:     NewEmbeddingCache(backend),
		Manifests: NewManifestRepository(backend),
		Backend:   backend,
	}, nil
}
