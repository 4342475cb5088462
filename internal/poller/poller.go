package poller

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"docvault/internal/clientstate"
	"docvault/internal/model"
)

const (
	DefaultInterval    = 2 * time.Second
	DefaultMaxAttempts = 30
	DefaultGrace       = 2 * time.Second
)

// Messages stored on failed progress entries.
const (
	MsgProcessingFailed  = "AI processing failed"
	MsgProcessingTimeout = "Processing timeout"
)

// Config holds the loop timing. Zero fields take the defaults.
type Config struct {
	Interval    time.Duration
	MaxAttempts int
	// Grace is how long a completed entry stays visible before removal.
	Grace time.Duration
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.Grace <= 0 {
		c.Grace = DefaultGrace
	}
	return c
}

// DocumentGetter reads one document's current state.
type DocumentGetter interface {
	GetDocument(ctx context.Context, id string) (*model.Document, error)
}

// Poller runs status loops against a server and writes outcomes to a Store.
type Poller struct {
	client DocumentGetter
	state  *clientstate.Store
	cfg    Config
	logger *zap.Logger
}

// New creates a Poller.
func New(client DocumentGetter, state *clientstate.Store, cfg Config, logger *zap.Logger) *Poller {
	return &Poller{client: client, state: state, cfg: cfg.withDefaults(), logger: logger}
}

// Watch polls id every interval until a terminal action, then applies it to
// the progress entry named filename. Cancelling ctx stops the loop only; the
// server-side job is unaffected.
func (p *Poller) Watch(ctx context.Context, id, filename string) Action {
	log := p.logger.With(zap.String("document_id", id), zap.String("filename", filename))
	tracker := NewTracker(p.cfg.MaxAttempts)

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug("poll_cancelled", zap.Int("attempts", tracker.Attempts()))
			return Abandoned
		case <-ticker.C:
		}

		doc, err := p.client.GetDocument(ctx, id)
		if err != nil && errors.Is(err, context.Canceled) {
			return Abandoned
		}
		action := tracker.Observe(doc, err)
		if !action.Done() {
			continue
		}

		p.apply(action, doc, filename)
		log.Info("poll_finished",
			zap.Stringer("action", action),
			zap.Int("attempts", tracker.Attempts()),
			zap.Error(err))
		return action
	}
}

func (p *Poller) apply(action Action, doc *model.Document, filename string) {
	switch action {
	case Completed:
		p.state.UpdateUpload(filename, clientstate.UploadUpdate{
			Status:   clientstate.Status(clientstate.UploadCompleted),
			Progress: clientstate.Progress(100),
		})
		p.state.UpdateDocument(*doc)
		time.AfterFunc(p.cfg.Grace, func() { p.state.RemoveUpload(filename) })
	case Failed:
		p.state.UpdateUpload(filename, clientstate.UploadUpdate{
			Status: clientstate.Status(clientstate.UploadFailed),
			Error:  clientstate.Message(MsgProcessingFailed),
		})
	case TimedOut:
		p.state.UpdateUpload(filename, clientstate.UploadUpdate{
			Status: clientstate.Status(clientstate.UploadFailed),
			Error:  clientstate.Message(MsgProcessingTimeout),
		})
	}
}

// WatchAll runs one independent loop per document and waits for all of them.
func (p *Poller) WatchAll(ctx context.Context, docs []model.Document) map[string]Action {
	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		out = make(map[string]Action, len(docs))
	)
	for _, d := range docs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a := p.Watch(ctx, d.ID, d.Name)
			mu.Lock()
			out[d.ID] = a
			mu.Unlock()
		}()
	}
	wg.Wait()
	return out
}

// UploadClient is the server surface the Uploader needs.
type UploadClient interface {
	DocumentGetter
	Upload(ctx context.Context, paths []string, folderID string) ([]model.Document, error)
}

// Uploader runs the upload flow: progress entries, one multipart request,
// then a background status loop per accepted document.
type Uploader struct {
	client UploadClient
	state  *clientstate.Store
	poller *Poller
	logger *zap.Logger
	wg     sync.WaitGroup
}

// NewUploader creates an Uploader polling with cfg.
func NewUploader(client UploadClient, state *clientstate.Store, cfg Config, logger *zap.Logger) *Uploader {
	return &Uploader{
		client: client,
		state:  state,
		poller: New(client, state, cfg, logger),
		logger: logger,
	}
}

// UploadFiles returns as soon as the server accepted the files; polling
// continues in the background until Wait returns.
func (u *Uploader) UploadFiles(ctx context.Context, paths []string, folderID string) ([]model.Document, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = filepath.Base(p)
		u.state.AddUpload(clientstate.Upload{Filename: names[i], Status: clientstate.UploadUploading})
	}

	docs, err := u.client.Upload(ctx, paths, folderID)
	if err != nil {
		for _, n := range names {
			u.state.UpdateUpload(n, clientstate.UploadUpdate{
				Status: clientstate.Status(clientstate.UploadFailed),
				Error:  clientstate.Message(err.Error()),
			})
		}
		u.logger.Warn("upload_failed", zap.Strings("files", names), zap.Error(err))
		return nil, err
	}

	for _, n := range names {
		u.state.UpdateUpload(n, clientstate.UploadUpdate{
			Status:   clientstate.Status(clientstate.UploadProcessing),
			Progress: clientstate.Progress(100),
		})
	}
	for _, d := range docs {
		u.state.AddDocument(d)
	}
	for _, d := range docs {
		u.wg.Add(1)
		go func() {
			defer u.wg.Done()
			u.poller.Watch(ctx, d.ID, d.Name)
		}()
	}
	return docs, nil
}

// Wait blocks until every status loop started by UploadFiles has stopped.
func (u *Uploader) Wait() { u.wg.Wait() }
