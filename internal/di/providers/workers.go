package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/pagevoiceapp/pagevoice-server/internal/config"
	"github.com/pagevoiceapp/pagevoice-server/internal/inbox"
	"github.com/pagevoiceapp/pagevoice-server/internal/logger"
	"github.com/pagevoiceapp/pagevoice-server/internal/service"
)

// InboxWatcherHandle wraps the optional inbox watcher. Watcher is nil when
// no inbox path is configured.
type InboxWatcherHandle struct {
	Watcher *inbox.Watcher
	cancel  context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *InboxWatcherHandle) Shutdown() error {
	if h.Watcher == nil {
		return nil
	}
	h.cancel()
	return h.Watcher.Stop()
}

// ProvideInboxWatcher provides the drop-folder watcher when configured.
func ProvideInboxWatcher(i do.Injector) (*InboxWatcherHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Ingest.InboxPath == "" {
		log.Info("inbox watcher disabled, no inbox path configured")
		return &InboxWatcherHandle{}, nil
	}

	ingest := do.MustInvoke[*service.IngestService](i)

	watcher, err := inbox.New(ingest, cfg.Ingest, log.Logger)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	go watcher.Start(ctx)

	return &InboxWatcherHandle{Watcher: watcher, cancel: cancel}, nil
}
