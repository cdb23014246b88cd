package pdf

import (
	"context"
	"testing"

	ierr "github.com/invoicegen/invoicegen/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockExporter struct {
	mock.Mock
}

func (m *MockExporter) Export(ctx context.Context, html string) ([]byte, error) {
	args := m.Called(ctx, html)
	if b := args.Get(0); b != nil {
		return b.([]byte), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestRenderInvoicePdf(t *testing.T) {
	exporter := new(MockExporter)
	renderer := newTestRenderer(t)
	svc := NewGenerator(renderer, exporter)

	inv := sampleInvoice()
	html, err := renderer.Render(inv)
	assert.NoError(t, err)

	expected := []byte("%PDF-1.7 mocked")
	exporter.On("Export", mock.Anything, html).Return(expected, nil)

	got, err := svc.RenderInvoicePdf(context.Background(), inv)
	assert.NoError(t, err)
	assert.Equal(t, expected, got)
	exporter.AssertExpectations(t)
}

func TestRenderInvoicePdf_Error(t *testing.T) {
	exporter := new(MockExporter)
	svc := NewGenerator(newTestRenderer(t), exporter)

	expectedError := ierr.NewError("browser crashed").Mark(ierr.ErrRender)
	exporter.On("Export", mock.Anything, mock.Anything).Return(nil, expectedError)

	got, err := svc.RenderInvoicePdf(context.Background(), sampleInvoice())
	assert.ErrorIs(t, err, expectedError)
	assert.True(t, ierr.IsRender(err))
	assert.Nil(t, got)
}
