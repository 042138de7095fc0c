package notify

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/dms/internal/domain"
)

// LogNotifier пишет пакеты офферов в лог вместо внешнего канала.
// Используется в локальной разработке, когда реальный канал не настроен.
type LogNotifier struct {
	logger *log.Entry
}

// NewLogNotifier создаёт notifier, доставляющий пакеты в лог.
func NewLogNotifier(logger *log.Entry) *LogNotifier {
	if logger == nil {
		logger = log.WithField("component", "log-notifier")
	}
	return &LogNotifier{logger: logger}
}

// NotifyVendor логирует пакет офферов поставщика.
func (n *LogNotifier) NotifyVendor(ctx context.Context, channelID string, batch domain.VendorBatch) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	n.logger.WithFields(log.Fields{
		"vendor_id":  batch.VendorID,
		"channel_id": channelID,
		"offers":     len(batch.Offers),
	}).Info("vendor batch dispatched")
	return nil
}

var _ domain.VendorNotifier = (*LogNotifier)(nil)
