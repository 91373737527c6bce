// Package watch recompiles a directory of pattern descriptions whenever its files change.
package watch

import (
	"context"
	"errors"
	"io"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ava12/melody/compiler"
)

// Options configures Build and Start.
type Options struct {
	Dir      string
	Ext      string
	Debounce time.Duration
	Workers  int
	Compiler compiler.Options

	// Logger receives one line per compiled file, log.Default() if nil.
	Logger *log.Logger

	// OnBuild is called after every build including the initial one, may be nil.
	OnBuild func([]compiler.BatchResult)
}

type closerFunc func() error

func (c closerFunc) Close() error { return c() }

// Build compiles all matching files in opts.Dir once and logs the outcome.
func Build(ctx context.Context, opts Options) ([]compiler.BatchResult, error) {
	l := logger(opts)
	files, err := compiler.FindFiles(opts.Dir, opts.Ext)
	if err != nil {
		return nil, err
	}

	units := make([]compiler.Unit, len(files))
	for i, f := range files {
		units[i] = compiler.Unit{Name: f}
	}

	results := compiler.CompileBatch(ctx, units, opts.Workers, opts.Compiler)
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			l.Printf("compile failed: file=%q err=%v", r.Unit.Name, r.Err)
			continue
		}
		l.Printf("compile ok: file=%q definitions=%d root=%t", r.Unit.Name, len(r.Result.Order), r.Result.HasRoot())
	}
	l.Printf("build done: dir=%q files=%d failed=%d", opts.Dir, len(results), failed)

	if opts.OnBuild != nil {
		opts.OnBuild(results)
	}
	return results, nil
}

// Start runs initial build and then rebuilds on every debounced change until the returned closer is closed.
func Start(opts Options) (io.Closer, error) {
	dir := strings.TrimSpace(opts.Dir)
	if dir == "" {
		return nil, errors.New("watch: empty directory")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 300 * time.Millisecond
	}
	l := logger(opts)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	if _, err := Build(ctx, opts); err != nil {
		cancel()
		_ = watcher.Close()
		return nil, err
	}

	stopCh := make(chan struct{})
	doneCh := make(chan struct{})
	triggerCh := make(chan struct{}, 1)

	go func() {
		defer close(doneCh)
		var (
			timer  *time.Timer
			timerC <-chan time.Time
		)
		resetTimer := func() {
			if timer == nil {
				timer = time.NewTimer(opts.Debounce)
				timerC = timer.C
				return
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(opts.Debounce)
			timerC = timer.C
		}
		rebuild := func() {
			if _, err := Build(ctx, opts); err != nil {
				l.Printf("rebuild failed (auto): dir=%q err=%v", dir, err)
			}
		}

		for {
			select {
			case <-stopCh:
				if timer != nil {
					timer.Stop()
				}
				return
			case <-timerC:
				timerC = nil
				rebuild()
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				l.Printf("watcher error: %v", err)
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if shouldTriggerRebuild(evt, opts.Ext) {
					select {
					case triggerCh <- struct{}{}:
					default:
					}
				}
			case <-triggerCh:
				resetTimer()
			}
		}
	}()

	l.Printf("watch enabled: dir=%q ext=%q debounce_ms=%d", dir, opts.Ext, opts.Debounce.Milliseconds())
	return closerFunc(func() error {
		close(stopCh)
		cancel()
		err := watcher.Close()
		<-doneCh
		return err
	}), nil
}

func shouldTriggerRebuild(evt fsnotify.Event, ext string) bool {
	if strings.TrimSpace(evt.Name) == "" {
		return false
	}
	if evt.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	base := filepath.Base(evt.Name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	return ext == "" || filepath.Ext(base) == ext
}

func logger(opts Options) *log.Logger {
	if opts.Logger != nil {
		return opts.Logger
	}
	return log.Default()
}
