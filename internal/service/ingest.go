package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pagevoiceapp/pagevoice-server/internal/config"
	"github.com/pagevoiceapp/pagevoice-server/internal/domain"
	domainerrors "github.com/pagevoiceapp/pagevoice-server/internal/errors"
	"github.com/pagevoiceapp/pagevoice-server/internal/notify"
	"github.com/pagevoiceapp/pagevoice-server/internal/pdf"
	"github.com/pagevoiceapp/pagevoice-server/internal/sse"
)

// demoText is the built-in sample read aloud when a device has nothing
// uploaded yet. It loads straight into the player without touching the
// library or its capacity limit.
const demoText = `Welcome to PageVoice. This demo shows how your documents ` +
	`sound when read aloud. Upload a PDF to hear your own content. You can ` +
	`adjust the reading speed, skip forward and back, and bookmark passages ` +
	`you want to return to later. Premium unlocks unlimited documents, ` +
	`unlimited bookmarks, and audio export.`

// IngestService turns uploaded PDF files into library documents with a
// ready playback session.
type IngestService struct {
	extractor pdf.Extractor
	library   *LibraryService
	playback  *PlaybackService
	notifier  *notify.Center
	emitter   *sse.Manager
	cfg       config.IngestConfig
	logger    *slog.Logger
}

// NewIngestService creates a new ingestion service.
func NewIngestService(
	extractor pdf.Extractor,
	library *LibraryService,
	playback *PlaybackService,
	notifier *notify.Center,
	emitter *sse.Manager,
	cfg config.IngestConfig,
	logger *slog.Logger,
) *IngestService {
	return &IngestService{
		extractor: extractor,
		library:   library,
		playback:  playback,
		notifier:  notifier,
		emitter:   emitter,
		cfg:       cfg,
		logger:    logger,
	}
}

// ProcessFile validates, extracts, and stores an uploaded file, then loads it
// into the device's player. Non-PDF uploads fail before the extractor is ever
// invoked. A full library downgrades the store step to a warning: the
// document still plays, it just is not kept.
func (s *IngestService) ProcessFile(ctx context.Context, deviceID, name, mimeType string, data []byte) (*domain.PlaybackSession, error) {
	if len(data) == 0 {
		return nil, domainerrors.Validation("empty file")
	}
	if s.cfg.MaxFileSize > 0 && int64(len(data)) > s.cfg.MaxFileSize {
		return nil, domainerrors.Validation(fmt.Sprintf("file exceeds the %d MB limit", s.cfg.MaxFileSize/(1024*1024)))
	}
	if !pdf.IsPDF(name, mimeType, data) {
		if s.notifier != nil {
			s.notifier.Error(deviceID, "Please select a PDF file")
		}
		return nil, domainerrors.Validation("only PDF files are supported")
	}

	extraction, err := s.extractor.Extract(ctx, data, func(page, total int) {
		if s.emitter != nil {
			s.emitter.Emit(sse.NewIngestProgressEvent(deviceID, name, page, total))
		}
	})
	if err != nil {
		if s.notifier != nil {
			s.notifier.Error(deviceID, "Could not read that PDF")
		}
		return nil, err
	}

	text := pdf.CleanText(extraction.Text)
	if text == "" {
		return nil, domainerrors.Ingestion("no extractable text in PDF")
	}

	doc := &domain.Document{
		DeviceID: deviceID,
		Name:     name,
		Size:     int64(len(data)),
		Pages:    extraction.Pages,
		Text:     text,
		AddedAt:  time.Now(),
	}

	stored := true
	if err := s.library.AddDocument(ctx, doc); err != nil {
		if !domainerrors.Is(err, domainerrors.ErrLimitExceeded) {
			return nil, err
		}
		// The document still plays this session; it just is not kept.
		stored = false
		if s.notifier != nil {
			s.notifier.Warning(deviceID, "Library is full. Upgrade to keep more documents.")
		}
	}

	documentID := doc.ID
	if !stored {
		documentID = ""
	}
	session, err := s.playback.LoadText(ctx, deviceID, documentID, text)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil && stored {
		s.notifier.Success(deviceID, fmt.Sprintf("Loaded %q (%d pages)", name, extraction.Pages))
	}

	s.logger.Info("file ingested",
		slog.String("device_id", deviceID),
		slog.String("name", name),
		slog.Int("pages", extraction.Pages),
		slog.Bool("stored", stored))
	return session, nil
}

// LoadDemo loads the built-in demo text into the device's player.
func (s *IngestService) LoadDemo(ctx context.Context, deviceID string) (*domain.PlaybackSession, error) {
	session, err := s.playback.LoadText(ctx, deviceID, "", demoText)
	if err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.Info(deviceID, "Demo loaded")
	}
	return session, nil
}

// PDFAvailable reports whether the PDF extractor is usable.
func (s *IngestService) PDFAvailable() bool {
	return s.extractor != nil && s.extractor.Available()
}
