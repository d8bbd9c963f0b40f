// Package webdav exposes the result directory read-only over WebDAV.
package webdav

import (
	"context"
	"net/http"
	"os"
	"sync"

	"golang.org/x/net/webdav"

	"cornercam/pkg/utils"
)

// readOnlyFS rejects every modification of the wrapped file system.
type readOnlyFS struct {
	webdav.FileSystem
}

func (readOnlyFS) Mkdir(context.Context, string, os.FileMode) error {
	return os.ErrPermission
}

func (fs readOnlyFS) OpenFile(ctx context.Context, name string, flag int, perm os.FileMode) (webdav.File, error) {
	if flag&(os.O_WRONLY|os.O_RDWR|os.O_CREATE|os.O_TRUNC|os.O_APPEND) != 0 {
		return nil, os.ErrPermission
	}
	return fs.FileSystem.OpenFile(ctx, name, flag, perm)
}

func (readOnlyFS) RemoveAll(context.Context, string) error {
	return os.ErrPermission
}

func (readOnlyFS) Rename(context.Context, string, string) error {
	return os.ErrPermission
}

func Handler(dir string) http.Handler {
	logger := utils.GetLogger()

	return &webdav.Handler{
		FileSystem: readOnlyFS{webdav.Dir(dir)},
		LockSystem: webdav.NewMemLS(),
		Logger: func(r *http.Request, err error) {
			if err != nil {
				logger.Errorf("WEBDAV [%s]: %s, err: %s", r.Method, r.URL, err)
			}
		},
	}
}

// Serve serves dir on port until ctx is done.
func Serve(ctx context.Context, port int, dir string) error {
	return utils.ListenAndServe(ctx, Handler(dir), port)
}

// Webdav is a server that can be started and stopped at runtime.
type Webdav struct {
	lock   sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	port   int
	dir    string
}

func New(ctx context.Context, port int, dir string) *Webdav {
	return &Webdav{
		ctx:  ctx,
		port: port,
		dir:  dir,
	}
}

// Start launches the server in the background and reports whether it was
// already running.
func (w *Webdav) Start() bool {
	w.lock.Lock()
	defer w.lock.Unlock()
	if w.cancel != nil {
		return true
	}
	ctx, cancel := context.WithCancel(w.ctx)
	w.cancel = cancel
	w.done = make(chan struct{})
	go func(done chan struct{}) {
		defer close(done)
		if err := Serve(ctx, w.port, w.dir); err != nil {
			utils.GetLogger().Errorf("webdav server err: %s", err)
		}
	}(w.done)

	return false
}

// Stop shuts the server down and waits for it, reporting whether it was
// running.
func (w *Webdav) Stop() bool {
	w.lock.Lock()
	defer w.lock.Unlock()
	if w.cancel == nil {
		return false
	}
	w.cancel()
	<-w.done
	w.cancel = nil

	return true
}

func (w *Webdav) Running() bool {
	w.lock.Lock()
	defer w.lock.Unlock()
	return w.cancel != nil
}

func (w *Webdav) Port() int {
	return w.port
}
