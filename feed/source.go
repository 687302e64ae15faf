package feed

import (
	"archive/zip"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/tsinghua-fib-lab/transit-routing/planner"
)

// Load 读取GTFS目录或.zip文件
func Load(p string) (planner.Schedule, error) {
	info, err := os.Stat(p)
	if err != nil {
		return planner.Schedule{}, err
	}
	if info.IsDir() {
		return LoadDir(p)
	}
	return LoadZip(p)
}

func LoadDir(dir string) (planner.Schedule, error) {
	log.Infof("loading feed from directory %s", dir)
	return build(func(name string) (*table, error) {
		f, err := os.Open(filepath.Join(dir, name))
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return readCSV(name, f)
	})
}

// LoadZip 读取GTFS压缩包，文件可以位于压缩包内的子目录中
func LoadZip(p string) (planner.Schedule, error) {
	log.Infof("loading feed from archive %s", p)
	zr, err := zip.OpenReader(p)
	if err != nil {
		return planner.Schedule{}, fmt.Errorf("open %s: %w", p, err)
	}
	defer zr.Close()
	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[strings.ToLower(path.Base(f.Name))] = f
	}
	return build(func(name string) (*table, error) {
		f, ok := files[name]
		if !ok {
			return nil, nil
		}
		r, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return readCSV(name, r)
	})
}
