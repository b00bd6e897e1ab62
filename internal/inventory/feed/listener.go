package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/tair/stock-scanner/internal/inventory/repository"
	"github.com/tair/stock-scanner/pkg/logger"
)

// PostgresListener refreshes the feed on NOTIFY from the products trigger, so
// writes made by other processes reach subscribers too
type PostgresListener struct {
	dsn  string
	feed *Feed
	log  zerolog.Logger
}

func NewPostgresListener(dsn string, feed *Feed) *PostgresListener {
	return &PostgresListener{
		dsn:  dsn,
		feed: feed,
		log:  logger.Component("catalog_listener"),
	}
}

// Run listens until ctx is cancelled
func (l *PostgresListener) Run(ctx context.Context) error {
	listener := pq.NewListener(l.dsn, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			l.log.Warn().Err(err).Int("event", int(ev)).Msg("Listener connection event")
		}
	})
	defer listener.Close()

	if err := listener.Listen(repository.ChangeChannel); err != nil {
		return fmt.Errorf("failed to listen on %s: %w", repository.ChangeChannel, err)
	}
	l.log.Info().Str("channel", repository.ChangeChannel).Msg("Listening for catalog changes")

	for {
		select {
		case <-ctx.Done():
			return nil
		case n := <-listener.Notify:
			// nil after a reconnect; changes may have been missed so refresh anyway
			if n != nil {
				l.log.Debug().Str("op", n.Extra).Msg("Catalog change notified")
			}
			_ = l.feed.Refresh(ctx)
		case <-time.After(90 * time.Second):
			if err := listener.Ping(); err != nil {
				l.log.Warn().Err(err).Msg("Listener ping failed")
			}
		}
	}
}
