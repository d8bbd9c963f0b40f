package server

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vincent-vinf/go-jsend"

	"cornercam/pkg/rawimage"
	"cornercam/pkg/session"
	"cornercam/pkg/storage"
	"cornercam/pkg/utils/ps"
)

type status struct {
	Session session.Stats `json:"session"`
	CPU     *ps.CPU       `json:"cpu,omitempty"`
	Memory  *ps.Memory    `json:"memory,omitempty"`
	Disk    *ps.Disk      `json:"disk,omitempty"`
	Webdav  *bool         `json:"webdav,omitempty"`
}

// encodeFrame encodes the shared frame under the session lock.
func (s *Server) encodeFrame(buf *bytes.Buffer) (uint64, error) {
	var (
		seq uint64
		err error
	)
	buf.Reset()
	s.sess.View(func(img *rawimage.Image, n uint64) {
		seq = n
		err = img.EncodeJPEG(buf, s.opts.Quality)
	})
	return seq, err
}

func (s *Server) frame(c *gin.Context) {
	var buf bytes.Buffer
	seq, err := s.encodeFrame(&buf)
	if err != nil {
		internalErr(c, err)
		return
	}
	c.Header("X-Frame-Seq", strconv.FormatUint(seq, 10))
	c.Data(http.StatusOK, "image/jpeg", buf.Bytes())
}

func (s *Server) stream(c *gin.Context) {
	mimeWriter := multipart.NewWriter(c.Writer)
	c.Header("Content-Type", fmt.Sprintf("multipart/x-mixed-replace; boundary=%s", mimeWriter.Boundary()))
	partHeader := make(textproto.MIMEHeader)
	partHeader.Add("Content-Type", "image/jpeg")

	t := time.NewTicker(s.opts.StreamInterval)
	defer t.Stop()

	var (
		buf  bytes.Buffer
		last uint64
		sent int
	)
	for {
		select {
		case <-c.Request.Context().Done():
			logger.Debugf("stream to %s closed after %d frames", c.ClientIP(), sent)
			return
		case <-t.C:
		}
		if s.sess.Seq() == last {
			continue
		}
		seq, err := s.encodeFrame(&buf)
		if err != nil {
			logger.Errorf("stream: encode frame: %s", err)
			return
		}
		last = seq

		partWriter, err := mimeWriter.CreatePart(partHeader)
		if err != nil {
			logger.Warnf("failed to create multi-part writer: %s", err)
			return
		}
		if _, err := partWriter.Write(buf.Bytes()); err != nil {
			logger.Warnf("failed to write image: %s", err)
			return
		}
		c.Writer.Flush()
		sent++
	}
}

func (s *Server) corners(c *gin.Context) {
	c.JSON(http.StatusOK, jsend.Success(s.sess.Result()))
}

func (s *Server) status(c *gin.Context) {
	st := status{Session: s.sess.Stats()}
	if cpu, err := ps.CPUStatus(); err == nil {
		st.CPU = &cpu
	} else {
		logger.Debugf("cpu status: %s", err)
	}
	if mem, err := ps.MemoryStatus(); err == nil {
		st.Memory = &mem
	} else {
		logger.Debugf("memory status: %s", err)
	}
	if s.opts.Storage != nil {
		if d, err := ps.DiskStatus(s.opts.Storage.Dir()); err == nil {
			st.Disk = &d
		} else {
			logger.Debugf("disk status: %s", err)
		}
	}

	if s.opts.Webdav != nil {
		running := s.opts.Webdav.Running()
		st.Webdav = &running
	}

	c.JSON(http.StatusOK, jsend.Success(st))
}

func (s *Server) listImages(c *gin.Context) {
	images, err := s.opts.Storage.ListImages()
	if err != nil {
		internalErr(c, err)
		return
	}
	c.JSON(http.StatusOK, jsend.Success(images))
}

func (s *Server) latestImage(c *gin.Context) {
	info, err := s.opts.Storage.Latest()
	if err != nil {
		internalErr(c, err)
		return
	}
	c.JSON(http.StatusOK, jsend.Success(info))
}

func (s *Server) getImage(c *gin.Context) {
	p := s.opts.Storage.Path(c.Param("name"))
	img, err := rawimage.Load(p, 3)
	if err != nil {
		c.JSON(http.StatusNotFound, jsend.SimpleErr("image not found"))
		return
	}
	var buf bytes.Buffer
	if err := img.EncodeJPEG(&buf, s.opts.Quality); err != nil {
		internalErr(c, err)
		return
	}
	c.Data(http.StatusOK, "image/jpeg", buf.Bytes())
}

// imageCorners returns the corner list stored next to an overlay.
func (s *Server) imageCorners(c *gin.Context) {
	name := strings.TrimSuffix(c.Param("name"), storage.DefaultImageExt) + storage.DefaultResultExt
	res, err := s.opts.Storage.LoadCorners(name)
	if err != nil {
		c.JSON(http.StatusNotFound, jsend.SimpleErr("corners not found"))
		return
	}
	c.JSON(http.StatusOK, jsend.Success(res))
}

func (s *Server) ctlWebdav(c *gin.Context) {
	w := s.opts.Webdav
	switch c.Query("op") {
	case webDavStart:
		if w.Start() {
			c.JSON(http.StatusOK, jsend.Success("the webdav service is already enabled"))
			return
		}
		c.JSON(http.StatusOK, jsend.Success(gin.H{"port": w.Port()}))
	case webDavShutdown:
		if !w.Stop() {
			c.JSON(http.StatusOK, jsend.SimpleErr("the webdav service has been shut down"))
			return
		}
		c.JSON(http.StatusOK, jsend.Success(nil))
	default:
		c.JSON(http.StatusBadRequest, jsend.SimpleErr("unknown operation"))
	}
}
