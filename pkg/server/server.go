// Package server serves the shared frame, the latest corners and host
// status over HTTP.
package server

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vincent-vinf/go-jsend"
	"go.uber.org/zap"

	"cornercam/pkg/session"
	"cornercam/pkg/storage"
	"cornercam/pkg/utils"
	"cornercam/pkg/webdav"
)

const (
	DefaultQuality        = 80
	DefaultStreamInterval = 50 * time.Millisecond

	webDavStart    = "start"
	webDavShutdown = "shutdown"
)

var logger *zap.SugaredLogger

func init() {
	logger = utils.GetLogger()
}

type Options struct {
	// Storage enables the image routes.
	Storage *storage.Storage
	// Webdav enables runtime control of the WebDAV server.
	Webdav *webdav.Webdav
	// Statics is a directory served at the root.
	Statics string
	// Quality of the JPEG frames.
	Quality int
	// StreamInterval is how often the stream checks for a new frame.
	StreamInterval time.Duration
	// AccessLog enables gin's request logging.
	AccessLog bool
}

type Server struct {
	sess *session.Session
	opts Options
	r    *gin.Engine
}

func New(sess *session.Session, opts Options) (*Server, error) {
	if opts.Quality <= 0 {
		opts.Quality = DefaultQuality
	}
	if opts.StreamInterval <= 0 {
		opts.StreamInterval = DefaultStreamInterval
	}
	s := &Server{sess: sess, opts: opts}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	if opts.AccessLog {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())
	r.Use(utils.Cors())
	if opts.Statics != "" {
		if err := registerStaticsDir(r, opts.Statics, "/"); err != nil {
			return nil, err
		}
	}
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, jsend.SimpleErr("page not found"))
	})

	api := r.Group("/api")
	api.GET("/frame", s.frame)
	api.GET("/stream", s.stream)
	api.GET("/corners", s.corners)
	api.GET("/status", s.status)

	if opts.Storage != nil {
		images := api.Group("/images")
		images.GET("", s.listImages)
		images.GET("/latest", s.latestImage)
		images.GET("/:name", s.getImage)
		images.GET("/:name/corners", s.imageCorners)
	}
	if opts.Webdav != nil {
		api.PUT("/webdav", s.ctlWebdav)
	}
	s.r = r

	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.r
}

// Serve listens on port until ctx is done.
func (s *Server) Serve(ctx context.Context, port int) error {
	return utils.ListenAndServe(ctx, s.r, port)
}

func registerStaticsDir(group gin.IRoutes, dir, relativeGroup string) error {
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return fmt.Errorf("the specified directory %s does not exist", dir)
	}
	dir = filepath.ToSlash(filepath.Clean(dir))
	group.StaticFile(relativeGroup, filepath.Join(dir, "index.html"))
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			relativePath := path.Join(relativeGroup, strings.TrimPrefix(filepath.ToSlash(p), dir))
			group.StaticFile(relativePath, p)
		}
		return nil
	})
}

func internalErr(c *gin.Context, err error) {
	c.JSON(http.StatusInternalServerError, jsend.SimpleErr(err.Error()))
}
