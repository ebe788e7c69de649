package valkey

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/maraichr/curator/internal/progress"
)

const (
	progressStreamPrefix = "curator:progress:"

	// progressStreamMaxLen caps each operation's stream; consumers that lag
	// behind lose old entries, not new ones.
	progressStreamMaxLen = 256

	publishTimeout = 2 * time.Second
)

// ProgressPublisher mirrors every tracker mutation to a per-operation Valkey
// stream so push-style consumers can follow progress without polling the HTTP
// endpoint. The polling interface stays authoritative; publishing is
// fire-and-forget.
type ProgressPublisher struct {
	client valkey.Client
	logger *slog.Logger
}

var _ progress.Broadcaster = (*ProgressPublisher)(nil)

func NewProgressPublisher(client valkey.Client, logger *slog.Logger) *ProgressPublisher {
	return &ProgressPublisher{client: client, logger: logger}
}

// Publish XADDs a snapshot of the operation to its stream. Never blocks the
// tracker: the write happens on its own goroutine with a short timeout.
func (p *ProgressPublisher) Publish(op progress.Operation) {
	data, err := json.Marshal(op)
	if err != nil {
		p.logger.Warn("marshal progress snapshot", slog.String("error", err.Error()))
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		resp := p.client.Do(ctx, p.client.B().Xadd().
			Key(progressStreamPrefix+op.ID).
			Maxlen().Almost().Threshold(strconv.Itoa(progressStreamMaxLen)).
			Id("*").
			FieldValue().FieldValue("data", string(data)).
			Build())
		if err := resp.Error(); err != nil {
			p.logger.Warn("publish progress",
				slog.String("operation_id", op.ID),
				slog.String("error", err.Error()))
		}
	}()
}
