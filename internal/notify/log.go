package notify

import (
	"context"

	"github.com/jonesrussell/north-cloud/newswatch/internal/domain"
	"github.com/jonesrussell/north-cloud/newswatch/internal/logger"
)

// LogNotifier writes one structured log line per article.
type LogNotifier struct {
	log logger.Logger
}

// NewLogNotifier creates a log sink.
func NewLogNotifier(log logger.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Name() string { return "log" }

func (n *LogNotifier) Notify(_ context.Context, article domain.Article) error {
	n.log.Info(NotificationTitle,
		logger.String("title", article.Title),
		logger.String("link", article.Link),
		logger.Source(article.Source),
		logger.Int64("id", article.ID),
	)
	return nil
}
