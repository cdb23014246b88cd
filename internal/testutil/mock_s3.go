package testutil

import (
	"context"
	"fmt"
	"sync"

	ierr "github.com/invoicegen/invoicegen/internal/errors"
	"github.com/invoicegen/invoicegen/internal/s3"
)

var _ s3.Service = (*InMemoryS3)(nil)

// InMemoryS3 stands in for the PDF archive bucket
type InMemoryS3 struct {
	mu      sync.Mutex
	objects map[string]*s3.Document
	Uploads int
}

func NewInMemoryS3() *InMemoryS3 {
	return &InMemoryS3{objects: make(map[string]*s3.Document)}
}

func (m *InMemoryS3) UploadDocument(ctx context.Context, document *s3.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[document.ID] = document
	m.Uploads++
	return nil
}

func (m *InMemoryS3) GetPresignedUrl(ctx context.Context, id, fileName string) (string, error) {
	return fmt.Sprintf("https://archive.test/%s?filename=%s", s3.ObjectKey("invoices", id), fileName), nil
}

func (m *InMemoryS3) GetDocument(ctx context.Context, id string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.objects[id]
	if !ok {
		return nil, ierr.NewError("document not found").
			WithHint("Document not found").
			Mark(ierr.ErrNotFound)
	}
	return doc.Data, nil
}

func (m *InMemoryS3) Exists(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[id]
	return ok, nil
}
