// Package watcher monitors a directory tree for markdown file changes
// and keeps the note store in sync: new or modified files are
// imported and (re)indexed, removed files are dropped from the store.
package watcher

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/salvadalba/sunder/internal/graphbuilder"
	"github.com/salvadalba/sunder/internal/indexer"
	"github.com/salvadalba/sunder/internal/logging"
	"github.com/salvadalba/sunder/internal/noterepo"
	"github.com/salvadalba/sunder/internal/sundererr"
)

// debounceDelay is how long the watcher waits after the last event in
// a burst before flushing pending paths.
const debounceDelay = 500 * time.Millisecond

// minWordsForGraph skips embedding and the similarity-cache rebuild
// for near-empty notes, mirroring the indexer's own embedding threshold.
const minWordsForGraph = 3

var log = logging.Component("watcher")

// ScanProgress reports progress during an initial directory scan.
type ScanProgress func(current, total int, path string)

// Watcher watches one directory, dispatching create/update/delete
// events into the note store.
type Watcher struct {
	root  string
	notes *noterepo.Repo
	idx   *indexer.Service
	graph *graphbuilder.Service

	skipDirs  map[string]bool
	skipFiles map[string]bool

	fsw *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]bool
	timer   *time.Timer

	stopCh chan struct{}
	doneCh chan struct{}
}

// New builds a Watcher over root, rejecting a root that doesn't exist
// or isn't a directory.
func New(root string, notes *noterepo.Repo, idx *indexer.Service, graph *graphbuilder.Service, skipDirs, skipFiles []string) (*Watcher, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, sundererr.DirectoryNotFound("watch directory does not exist: " + root)
	}
	if !info.IsDir() {
		return nil, sundererr.NotADirectory(root + " is not a directory")
	}

	canonical, err := filepath.EvalSymlinks(root)
	if err != nil {
		canonical = root
	}

	toSet := func(items []string) map[string]bool {
		m := make(map[string]bool, len(items))
		for _, it := range items {
			m[it] = true
		}
		return m
	}

	return &Watcher{
		root:      canonical,
		notes:     notes,
		idx:       idx,
		graph:     graph,
		skipDirs:  toSet(skipDirs),
		skipFiles: toSet(skipFiles),
		pending:   make(map[string]bool),
	}, nil
}

// Scan walks the tree once, importing every markdown file found, in
// sorted path order for deterministic progress reporting.
func (w *Watcher) Scan(progress ScanProgress) error {
	files := w.walkMarkdownFiles(w.root)

	total := len(files)
	for i, path := range files {
		if err := w.importFile(path); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("scan: import failed")
		}
		if progress != nil {
			progress(i+1, total, path)
		}
	}
	return nil
}

// Start begins watching in the background. Call Stop to shut down.
func (w *Watcher) Start() error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return sundererr.IoError(err)
	}
	w.fsw = fsw

	for _, dir := range w.walkDirs(w.root) {
		if err := fsw.Add(dir); err != nil {
			log.Warn().Err(err).Str("dir", dir).Msg("could not watch directory")
		}
	}

	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	go w.loop()

	if err := w.Scan(nil); err != nil {
		return err
	}
	return nil
}

// Stop shuts down the watcher and waits for its goroutine to exit.
func (w *Watcher) Stop() {
	if w.fsw == nil {
		return
	}
	close(w.stopCh)
	<-w.doneCh
	w.fsw.Close()
	w.fsw = nil
}

func (w *Watcher) loop() {
	defer close(w.doneCh)
	for {
		select {
		case <-w.stopCh:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("watch error")
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !w.skipDirs[filepath.Base(event.Name)] {
				w.fsw.Add(event.Name)
			}
			return
		}
	}

	if !w.isMarkdownFile(event.Name) {
		return
	}
	if !w.isSafePath(event.Name) {
		log.Warn().Str("path", event.Name).Msg("rejecting path outside watched root")
		return
	}

	switch {
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write), event.Has(fsnotify.Rename):
		w.schedule(event.Name)
	case event.Has(fsnotify.Remove):
		w.processRemoval(event.Name)
	}
}

func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending[path] = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(debounceDelay, w.flush)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = make(map[string]bool)
	w.mu.Unlock()

	for _, p := range paths {
		if err := w.importFile(p); err != nil {
			log.Warn().Err(err).Str("path", p).Msg("import failed")
		}
	}
}

func (w *Watcher) importFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	title, body := extractFrontMatter(string(raw))
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if title == "" {
		title = "Untitled"
	}

	existing, err := w.notes.GetByFilePath(path)
	if err != nil {
		return err
	}

	var note *noterepo.Note
	if existing == nil {
		note, err = w.notes.Create(title, body, path)
	} else {
		if existing.Title == title && existing.Content == body {
			return nil // no-op: file changed on disk without content changing
		}
		note, err = w.notes.Update(existing.ID, &title, &body)
	}
	if err != nil {
		return err
	}

	if len(strings.Fields(body)) < minWordsForGraph {
		return nil
	}
	if err := w.idx.IndexNote(note.ID, body); err != nil {
		return err
	}
	return w.graph.RebuildForNote(note.ID)
}

func (w *Watcher) processRemoval(path string) {
	note, err := w.notes.GetByFilePath(path)
	if err != nil || note == nil {
		return
	}
	if err := w.idx.RemoveEmbedding(note.ID); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("remove embedding failed")
	}
	if err := w.graph.RemoveForNote(note.ID); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("remove similarity cache failed")
	}
	// DeleteRow, not Delete: the file is already gone (or a concurrent
	// editor is about to rewrite it at this path), so removing it again
	// here would either no-op or clobber the rewrite.
	if err := w.notes.DeleteRow(note.ID); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("delete note failed")
	}
}

func (w *Watcher) isMarkdownFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".md" || ext == ".markdown"
}

// isSafePath guards against a symlink inside the watched tree
// resolving to somewhere outside it. A file that has just been
// deleted can't be canonicalized, so this falls back to a plain
// prefix check in that case.
func (w *Watcher) isSafePath(path string) bool {
	canonical, err := filepath.EvalSymlinks(path)
	if err != nil {
		canonical = path
	}
	return strings.HasPrefix(canonical, w.root)
}

func (w *Watcher) walkDirs(root string) []string {
	var dirs []string
	filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			name := d.Name()
			if strings.HasPrefix(name, ".") && path != root {
				return filepath.SkipDir
			}
			if w.skipDirs[name] {
				return filepath.SkipDir
			}
			dirs = append(dirs, path)
		}
		return nil
	})
	return dirs
}

func (w *Watcher) walkMarkdownFiles(root string) []string {
	var files []string
	filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			name := d.Name()
			if strings.HasPrefix(name, ".") && path != root {
				return filepath.SkipDir
			}
			if w.skipDirs[name] {
				return filepath.SkipDir
			}
			return nil
		}
		if w.isMarkdownFile(path) && !w.skipFiles[d.Name()] {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files
}
