// Package notify содержит заглушку внешнего канала уведомлений поставщиков.
package notify

import (
	"context"
	"sync"

	"github.com/vladislavdragonenkov/dms/internal/domain"
)

// MockNotifier — конфигурируемая заглушка VendorNotifier для тестов
// и локальной разработки.
type MockNotifier struct {
	mu sync.Mutex

	// NotifyErr возвращается на каждый вызов; FailChannels — ошибки
	// только для конкретных каналов.
	NotifyErr    error
	FailChannels map[string]error

	Batches []domain.VendorBatch
	Calls   int
}

// NewMockNotifier возвращает mock с успешным сценарием по умолчанию.
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

// NotifyVendor запоминает пакет и возвращает заранее настроенную ошибку.
func (m *MockNotifier) NotifyVendor(ctx context.Context, channelID string, batch domain.VendorBatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls++
	if err, ok := m.FailChannels[channelID]; ok {
		return err
	}
	if m.NotifyErr != nil {
		return m.NotifyErr
	}
	m.Batches = append(m.Batches, batch)
	return nil
}

// Delivered возвращает копию успешно доставленных пакетов.
func (m *MockNotifier) Delivered() []domain.VendorBatch {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]domain.VendorBatch, len(m.Batches))
	copy(result, m.Batches)
	return result
}

var _ domain.VendorNotifier = (*MockNotifier)(nil)
