package realtime

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type Publisher interface {
	Publish(ctx context.Context, ev Event)
}

// Listener holds a dedicated connection in LISTEN mode and forwards every
// notification to a Publisher. It reconnects after a fixed backoff.
type Listener struct {
	connString string
	channel    string
	out        Publisher
	backoff    time.Duration
	log        *zap.Logger
}

func NewListener(connString, channel string, out Publisher, log *zap.Logger) *Listener {
	return &Listener{
		connString: connString,
		channel:    channel,
		out:        out,
		backoff:    2 * time.Second,
		log:        log.Named("listener"),
	}
}

// Run blocks until ctx is cancelled.
func (l *Listener) Run(ctx context.Context) {
	for {
		err := l.listen(ctx)
		if ctx.Err() != nil {
			return
		}
		l.log.Warn("change feed disconnected", zap.Error(err), zap.Duration("retry_in", l.backoff))

		select {
		case <-ctx.Done():
			return
		case <-time.After(l.backoff):
		}
	}
}

func (l *Listener) listen(ctx context.Context) error {
	conn, err := pgx.Connect(ctx, l.connString)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{l.channel}.Sanitize()); err != nil {
		return fmt.Errorf("listen %s: %w", l.channel, err)
	}
	l.log.Info("listening for changes", zap.String("channel", l.channel))

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}

		ev, err := Decode(n.Payload)
		if err != nil {
			l.log.Warn("skipping malformed change event", zap.Error(err))
			continue
		}
		l.out.Publish(ctx, ev)
	}
}
