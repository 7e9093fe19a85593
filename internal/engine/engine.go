// Package engine assembles the Store, Embedder, and every service
// package into one handle that callers (the CLI, a future UI layer)
// drive through a single entry point. It also owns the background
// indexing worker that note creation and updates feed without
// blocking their caller.
package engine

import (
	"github.com/salvadalba/sunder/internal/config"
	"github.com/salvadalba/sunder/internal/embedding"
	"github.com/salvadalba/sunder/internal/graphbuilder"
	"github.com/salvadalba/sunder/internal/indexer"
	"github.com/salvadalba/sunder/internal/linker"
	"github.com/salvadalba/sunder/internal/logging"
	"github.com/salvadalba/sunder/internal/noterepo"
	"github.com/salvadalba/sunder/internal/search"
	"github.com/salvadalba/sunder/internal/settings"
	"github.com/salvadalba/sunder/internal/store"
	"github.com/salvadalba/sunder/internal/watcher"
)

var log = logging.Component("engine")

// Engine is the wired-up application: every component shares the one
// *store.DB and *embedding.Embedder that New opens.
type Engine struct {
	DB       *store.DB
	Embedder *embedding.Embedder
	Notes    *noterepo.Repo
	Indexer  *indexer.Service
	Search   *search.Service
	Linker   *linker.Service
	Graph    *graphbuilder.Service
	Settings *settings.Service

	Cfg     *config.Config
	watcher *watcher.Watcher

	indexQueue chan indexJob
	queueDone  chan struct{}
}

type indexJob struct {
	noteID  string
	content string
}

// New opens the database at cfg's configured path, loads the ONNX
// embedder from cfg's resource directory, and wires every service
// package to them.
func New(cfg *config.Config) (*Engine, error) {
	dbPath, err := cfg.DBPath()
	if err != nil {
		return nil, err
	}
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}

	embedder, err := embedding.New(cfg.Embedding.ResourceDir, cfg.Embedding.IntraOpThreads)
	if err != nil {
		db.Close()
		return nil, err
	}

	e := &Engine{
		DB:         db,
		Embedder:   embedder,
		Notes:      noterepo.New(db),
		Indexer:    indexer.New(db, embedder),
		Search:     search.New(db, embedder),
		Linker:     linker.New(db, embedder),
		Graph:      graphbuilder.New(db),
		Settings:   settings.New(db),
		Cfg:        cfg,
		indexQueue: make(chan indexJob, 64),
		queueDone:  make(chan struct{}),
	}
	go e.runIndexQueue()
	return e, nil
}

// Close stops the background worker, the watcher (if running), and
// releases the database.
func (e *Engine) Close() error {
	close(e.indexQueue)
	<-e.queueDone
	if e.watcher != nil {
		e.watcher.Stop()
	}
	if e.Embedder != nil {
		e.Embedder.Close()
	}
	return e.DB.Close()
}

// CreateNote creates a note and queues it for background indexing and
// graph-cache rebuild; it does not wait for either to finish.
func (e *Engine) CreateNote(title, content, filePath string) (*noterepo.Note, error) {
	note, err := e.Notes.Create(title, content, filePath)
	if err != nil {
		return nil, err
	}
	e.enqueueIndex(note.ID, note.Content)
	return note, nil
}

// UpdateNote updates a note and queues it for background reindexing.
func (e *Engine) UpdateNote(id string, title, content *string) (*noterepo.Note, error) {
	note, err := e.Notes.Update(id, title, content)
	if err != nil {
		return nil, err
	}
	e.enqueueIndex(note.ID, note.Content)
	return note, nil
}

// DeleteNote removes a note, its embedding, and any cached
// similarities touching it.
func (e *Engine) DeleteNote(id string) error {
	if err := e.Indexer.RemoveEmbedding(id); err != nil {
		return err
	}
	if err := e.Graph.RemoveForNote(id); err != nil {
		return err
	}
	return e.Notes.Delete(id)
}

func (e *Engine) enqueueIndex(noteID, content string) {
	select {
	case e.indexQueue <- indexJob{noteID: noteID, content: content}:
	default:
		log.Warn().Str("note_id", noteID).Msg("index queue full, dropping background index job")
	}
}

// runIndexQueue is the single background worker that performs every
// queued (re)index and graph-cache rebuild, so note mutations return
// to their caller immediately instead of blocking on ONNX inference.
func (e *Engine) runIndexQueue() {
	defer close(e.queueDone)
	for job := range e.indexQueue {
		if err := e.Indexer.IndexNote(job.noteID, job.content); err != nil {
			log.Warn().Err(err).Str("note_id", job.noteID).Msg("background index failed")
			continue
		}
		if err := e.Graph.RebuildForNote(job.noteID); err != nil {
			log.Warn().Err(err).Str("note_id", job.noteID).Msg("background graph rebuild failed")
		}
	}
}

// StartWatching begins watching dir for markdown changes, persisting
// it as the configured watch directory.
func (e *Engine) StartWatching(dir string) error {
	if e.watcher != nil {
		e.watcher.Stop()
	}
	w, err := watcher.New(dir, e.Notes, e.Indexer, e.Graph, e.Cfg.Watch.SkipDirs, e.Cfg.Watch.SkipFiles)
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		return err
	}
	e.watcher = w
	return e.Settings.SetWatchDirectory(dir)
}

// StopWatching stops the active watcher, if any.
func (e *Engine) StopWatching() {
	if e.watcher != nil {
		e.watcher.Stop()
		e.watcher = nil
	}
}

// ScanDirectory performs a one-shot import of dir without starting a
// persistent watch.
func (e *Engine) ScanDirectory(dir string, progress watcher.ScanProgress) error {
	w, err := watcher.New(dir, e.Notes, e.Indexer, e.Graph, e.Cfg.Watch.SkipDirs, e.Cfg.Watch.SkipFiles)
	if err != nil {
		return err
	}
	return w.Scan(progress)
}
