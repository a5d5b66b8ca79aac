package watcher

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"autosg/internal/shared/observability"
	"autosg/internal/shared/util"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"
)

// Filter reports whether a changed file should be handed to the callback.
type Filter func(path string) bool

// Watcher batches file-system events under a set of roots and calls onChange
// with the sorted, de-duplicated paths once the debounce window is quiet.
type Watcher struct {
	fsWatcher    *fsnotify.Watcher
	debounce     time.Duration
	excludeDirs  []glob.Glob
	excludeFiles []glob.Glob
	accept       Filter
	recursive    bool
	onChange     func([]string)
	callbackMu   sync.Mutex

	// dirs holds every directory watched for its own sake. A file root's
	// parent is only watched to see that file, so events for its siblings
	// are dropped unless the parent is also in dirs.
	dirs      map[string]struct{}
	fileRoots map[string]struct{}
	scopeMu   sync.RWMutex

	pending   map[string]struct{}
	pendingMu sync.Mutex
	timer     *time.Timer

	done      chan struct{}
	closeOnce sync.Once
}

func NewWatcher(debounce time.Duration, excludeDirs, excludeFiles []string, accept Filter, onChange func([]string)) (*Watcher, error) {
	if onChange == nil {
		return nil, os.ErrInvalid
	}

	compiledDirs, err := util.CompileGlobs(excludeDirs, "exclude dir")
	if err != nil {
		return nil, err
	}
	compiledFiles, err := util.CompileGlobs(excludeFiles, "exclude file")
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		fsWatcher:    fsw,
		debounce:     debounce,
		excludeDirs:  compiledDirs,
		excludeFiles: compiledFiles,
		accept:       accept,
		recursive:    true,
		onChange:     onChange,
		dirs:         make(map[string]struct{}),
		fileRoots:    make(map[string]struct{}),
		pending:      make(map[string]struct{}),
		done:         make(chan struct{}),
	}, nil
}

// SetRecursive controls whether subdirectories of a root are watched. It must
// be called before Watch.
func (w *Watcher) SetRecursive(recursive bool) {
	w.recursive = recursive
}

func (w *Watcher) SetDebounce(debounce time.Duration) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()
	w.debounce = debounce
}

// Watch registers every non-excluded directory under paths and starts the
// event loop. File roots are watched through their parent directory.
func (w *Watcher) Watch(paths []string) error {
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		if !info.IsDir() {
			if err := w.fsWatcher.Add(filepath.Dir(path)); err != nil {
				return err
			}
			w.scopeMu.Lock()
			w.fileRoots[filepath.Clean(path)] = struct{}{}
			w.scopeMu.Unlock()
			continue
		}
		if err := w.watchRecursive(path); err != nil {
			return err
		}
	}

	go w.run()
	return nil
}

func (w *Watcher) watchRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && (!w.recursive || w.shouldExcludeDir(path)) {
			return filepath.SkipDir
		}
		if err := w.fsWatcher.Add(path); err != nil {
			return err
		}
		w.scopeMu.Lock()
		w.dirs[filepath.Clean(path)] = struct{}{}
		w.scopeMu.Unlock()
		return nil
	})
}

// inScope reports whether path lies in a watched directory or is itself a
// file root.
func (w *Watcher) inScope(path string) bool {
	path = filepath.Clean(path)
	w.scopeMu.RLock()
	defer w.scopeMu.RUnlock()
	if _, ok := w.dirs[filepath.Dir(path)]; ok {
		return true
	}
	_, ok := w.fileRoots[path]
	return ok
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			observability.WatcherEventsTotal.Inc()

			if event.Op&fsnotify.Create == fsnotify.Create {
				info, err := os.Stat(event.Name)
				if err == nil && info.IsDir() {
					if w.recursive && !w.shouldExcludeDir(event.Name) {
						if err := w.watchRecursive(event.Name); err != nil {
							slog.Warn("failed to watch new directory", "path", event.Name, "error", err)
						} else {
							w.enqueueExistingFiles(event.Name)
						}
					}
					continue
				}
			}

			// Removed files have nothing left to annotate.
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if !w.inScope(event.Name) || w.shouldExcludeFile(event.Name) {
				continue
			}
			w.scheduleChange(event.Name)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			slog.Error("watcher error", "error", err)

		case <-w.done:
			return
		}
	}
}

func (w *Watcher) scheduleChange(path string) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	w.pending[path] = struct{}{}

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flushChanges)
}

func (w *Watcher) flushChanges() {
	w.pendingMu.Lock()
	paths := make([]string, 0, len(w.pending))
	for path := range w.pending {
		paths = append(paths, path)
	}
	w.pending = make(map[string]struct{})
	w.pendingMu.Unlock()

	if len(paths) == 0 {
		return
	}
	sort.Strings(paths)

	select {
	case <-w.done:
		return
	default:
	}

	w.callbackMu.Lock()
	defer w.callbackMu.Unlock()
	w.onChange(paths)
}

func (w *Watcher) shouldExcludeDir(path string) bool {
	return util.MatchAny(w.excludeDirs, filepath.Base(path))
}

func (w *Watcher) shouldExcludeFile(path string) bool {
	if util.MatchAny(w.excludeFiles, filepath.Base(path)) {
		return true
	}
	if w.accept != nil && !w.accept(path) {
		return true
	}
	return false
}

func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		w.pendingMu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.pendingMu.Unlock()
		err = w.fsWatcher.Close()
	})
	return err
}

func (w *Watcher) enqueueExistingFiles(root string) {
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if w.shouldExcludeFile(path) {
			return nil
		}
		w.scheduleChange(path)
		return nil
	})
}
