package notification

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// LogNotifier writes push notifications to the log. It stands in for a push gateway.
type LogNotifier struct {
	log *logrus.Logger
}

func NewLogNotifier(log *logrus.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) SchedulePushNotification(ctx context.Context, recipient, title, body string, fireAt time.Time) error {
	n.log.WithFields(logrus.Fields{
		"recipient": recipient,
		"fire_at":   fireAt.Format(time.RFC3339),
	}).Infof("Push scheduled: %s - %s", title, body)
	return nil
}

// Deliver sends an entry whose fire time has come
func (n *LogNotifier) Deliver(ctx context.Context, entry OutboxEntry) error {
	n.log.WithFields(logrus.Fields{
		"recipient": entry.Recipient,
		"entry_id":  entry.ID,
	}).Infof("Push delivered: %s - %s", entry.Title, entry.Body)
	return nil
}
