// Package storage keeps numbered detection results in a directory.
//
// Every prefix has its own counter, persisted in info.json next to the
// files, so numbering continues across restarts.
package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"cornercam/pkg/rawimage"
	"cornercam/pkg/session"
	"cornercam/pkg/types"
	"cornercam/pkg/utils"
)

var logger *zap.SugaredLogger

func init() {
	logger = utils.GetLogger()
}

type Info struct {
	Counters    map[string]int `json:"counters"`
	LatestImage string         `json:"latestImage"`

	UpdateAt time.Time `json:"updateAt"`
}

type Storage struct {
	dir string

	lock sync.Mutex
}

func New(dir string) (*Storage, error) {
	if dir == "" {
		return nil, fmt.Errorf("storage dir can not be empty")
	}
	if err := os.MkdirAll(dir, DefaultDirPerm); err != nil {
		return nil, err
	}
	s := &Storage{dir: dir}

	_, err := os.Stat(s.infoPath())
	if errors.Is(err, fs.ErrNotExist) {
		err = s.dumpInfo(&Info{})
	}
	if err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Storage) Dir() string {
	return s.dir
}

// SaveNumbered writes img as <prefix>_<n>.bmp, n counting from 1 per
// prefix, and returns the file name.
func (s *Storage) SaveNumbered(prefix string, img *rawimage.Image) (string, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	info, err := s.loadInfo()
	if err != nil {
		return "", err
	}
	n := info.Counters[prefix] + 1
	name := generateName(prefix, n, DefaultImageExt)
	if err = img.SaveBMP(s.Path(name)); err != nil {
		return "", fmt.Errorf("save %s: %w", name, err)
	}

	info.Counters[prefix] = n
	info.LatestImage = name
	if err = s.dumpInfo(info); err != nil {
		return "", err
	}
	logger.Debugf("saved %s", name)

	return name, nil
}

// SaveOverlay writes a corner overlay as corners_<method>_<n>.bmp.
func (s *Storage) SaveOverlay(method string, img *rawimage.Image) (string, error) {
	return s.SaveNumbered("corners_"+method, img)
}

// SaveCorners writes r as corners_<method>_<n>.json, n being the number of
// the latest overlay of the same method.
func (s *Storage) SaveCorners(r session.Result) (string, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	info, err := s.loadInfo()
	if err != nil {
		return "", err
	}
	prefix := "corners_" + r.Method
	name := generateName(prefix, info.Counters[prefix], DefaultResultExt)

	data, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	if err = os.WriteFile(s.Path(name), data, DefaultFilePerm); err != nil {
		return "", err
	}

	return name, nil
}

// LoadCorners reads a result written by SaveCorners.
func (s *Storage) LoadCorners(name string) (session.Result, error) {
	var r session.Result
	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		return r, fmt.Errorf("result not found, %w", err)
	}
	if err = json.Unmarshal(data, &r); err != nil {
		return r, fmt.Errorf("unmarshal result err: %w", err)
	}
	return r, nil
}

func (s *Storage) Latest() (*Info, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.loadInfo()
}

// ListImages returns the stored images in lexical order.
func (s *Storage) ListImages() ([]types.File, error) {
	files, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var res []types.File
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), DefaultImageExt) {
			continue
		}
		info, err := file.Info()
		if err != nil {
			// removed between ReadDir and Info
			continue
		}
		res = append(res, types.File{
			Name:    file.Name(),
			Size:    humanize.Bytes(uint64(info.Size())),
			Bytes:   info.Size(),
			ModTime: info.ModTime(),
		})
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].Name < res[j].Name
	})

	return res, nil
}

// Path resolves a stored file name. Names cannot escape the directory.
func (s *Storage) Path(name string) string {
	return filepath.Join(s.dir, filepath.Base(name))
}

func (s *Storage) infoPath() string {
	return filepath.Join(s.dir, DefaultInfoFile)
}

func (s *Storage) loadInfo() (*Info, error) {
	data, err := os.ReadFile(s.infoPath())
	if err != nil {
		return nil, fmt.Errorf("read info err: %w", err)
	}
	info := &Info{}
	if err = json.Unmarshal(data, info); err != nil {
		return nil, fmt.Errorf("unmarshal info err: %w", err)
	}
	if info.Counters == nil {
		info.Counters = make(map[string]int)
	}

	return info, nil
}

func (s *Storage) dumpInfo(info *Info) error {
	info.UpdateAt = time.Now()
	data, err := json.Marshal(info)
	if err != nil {
		return err
	}

	return os.WriteFile(s.infoPath(), data, DefaultFilePerm)
}

func generateName(prefix string, n int, ext string) string {
	return fmt.Sprintf("%s_%d%s", prefix, n, ext)
}
