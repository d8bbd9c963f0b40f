// Package video records RGB frames into an MJPEG AVI file.
package video

import (
	"bytes"
	"fmt"

	"github.com/icza/mjpeg"

	"cornercam/pkg/rawimage"
)

const DefaultQuality = 85

type Builder struct {
	width   int
	height  int
	fps     int
	quality int

	cnt int
	buf bytes.Buffer
	aw  mjpeg.AviWriter
}

func NewBuilder(path string, width, height, fps int) (*Builder, error) {
	if width <= 0 || height <= 0 || fps <= 0 {
		return nil, fmt.Errorf("invalid video %dx%d@%d", width, height, fps)
	}
	aw, err := mjpeg.New(path, int32(width), int32(height), int32(fps))
	if err != nil {
		return nil, err
	}

	return &Builder{
		width:   width,
		height:  height,
		fps:     fps,
		quality: DefaultQuality,
		aw:      aw,
	}, nil
}

func (b *Builder) SetQuality(q int) {
	b.quality = q
}

// Add appends an already JPEG encoded frame.
func (b *Builder) Add(frame []byte) error {
	err := b.aw.AddFrame(frame)
	if err != nil {
		return err
	}
	b.cnt++

	return nil
}

// AddImage encodes img as JPEG and appends it. img must match the video
// geometry.
func (b *Builder) AddImage(img *rawimage.Image) error {
	if img.Width != b.width || img.Height != b.height {
		return fmt.Errorf("frame %dx%d does not match video %dx%d", img.Width, img.Height, b.width, b.height)
	}
	b.buf.Reset()
	if err := img.EncodeJPEG(&b.buf, b.quality); err != nil {
		return err
	}

	return b.Add(b.buf.Bytes())
}

func (b *Builder) Close() error {
	return b.aw.Close()
}

func (b *Builder) GetCnt() int {
	return b.cnt
}
