package rawimage

import (
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"
	"os"

	"golang.org/x/image/bmp"
)

const DefaultFilePerm = 0660

// Load decodes a BMP, PNG or JPEG file into a buffer of the given depth.
func Load(path string, bpp int) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	return FromImage(src, bpp), nil
}

func (m *Image) EncodeBMP(dst io.Writer) error {
	return bmp.Encode(dst, m.Std())
}

func (m *Image) EncodeJPEG(dst io.Writer, quality int) error {
	return jpeg.Encode(dst, m.Std(), &jpeg.Options{Quality: quality})
}

func (m *Image) SaveBMP(path string) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, DefaultFilePerm)
	if err != nil {
		return err
	}
	if err = m.EncodeBMP(f); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

func (m *Image) SaveJPEG(path string, quality int) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, DefaultFilePerm)
	if err != nil {
		return err
	}
	if err = m.EncodeJPEG(f, quality); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}
