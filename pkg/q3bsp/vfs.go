package q3bsp

import (
	"archive/zip"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"

	vpk "github.com/galaco/vpk2"
	"github.com/pkg/errors"
)

var errFileNotFound = errors.New("file not found")

// vfs resolves files from pk3 (zip) and vpk archives, in the order given.
type vfs struct {
	pk3s []*zip.Reader
	vpks []*vpk.VPK

	closers []io.Closer

	pk3Index []map[string]*zip.File
}

func openArchives(paths ...string) (*vfs, error) {
	v := new(vfs)

	for _, p := range paths {
		switch strings.ToLower(path.Ext(p)) {
		case ".pk3", ".zip":
			rc, err := zip.OpenReader(p)
			if err != nil {
				v.Close()

				return nil, errors.Wrapf(err, "failed to open pk3 %q", p)
			}

			v.closers = append(v.closers, rc)
			v.pk3s = append(v.pk3s, &rc.Reader)
		default:
			pak, err := vpk.Open(vpk.MultiVPK(p))
			if err != nil {
				v.Close()

				return nil, errors.Wrapf(err, "failed to open vpk %q", p)
			}

			v.vpks = append(v.vpks, pak)
		}
	}

	return v, nil
}

func (v *vfs) Close() error {
	var firstErr error

	for _, c := range v.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

func (v *vfs) open(name string) (io.ReadCloser, error) {
	name = strings.TrimPrefix(path.Clean(strings.ReplaceAll(name, "\\", "/")), "/")

	for i, pak := range v.pk3s {
		f, err := pak.Open(name)
		if err == nil {
			stat, err := f.Stat()
			if err == nil && stat.Size() > 0 {
				return f, nil
			}

			f.Close()
		}

		// try case-insensitive
		if v.pk3Index == nil {
			v.pk3Index = make([]map[string]*zip.File, len(v.pk3s))
		}

		if v.pk3Index[i] == nil {
			v.pk3Index[i] = make(map[string]*zip.File, len(pak.File))

			for _, zf := range pak.File {
				v.pk3Index[i][strings.ToLower(zf.Name)] = zf
			}
		}

		if zf, ok := v.pk3Index[i][strings.ToLower(name)]; ok {
			rc, err := zf.Open()
			if err == nil {
				return rc, nil
			}
		}
	}

	for _, pak := range v.vpks {
		var (
			f   fs.File
			err error
		)

		f, err = pak.Open(name)
		if err == nil {
			stat, err := f.Stat()
			if err == nil && stat.Size() > 0 {
				return f, nil
			}

			f.Close()
		}
	}

	return nil, errors.Wrapf(errFileNotFound, "%s not found", name)
}

// LoadFromFileSystem reads and parses a map. mapPath is tried on disk first,
// then inside each archive in order. Archives ending in .pk3 or .zip are read
// as zip files, anything else as a vpk directory prefix.
func LoadFromFileSystem(mapPath string, archives ...string) (*Map, error) {
	data, err := os.ReadFile(mapPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) || len(archives) == 0 {
			return nil, errors.Wrapf(err, "failed to read map %q", mapPath)
		}

		data, err = readFromArchives(mapPath, archives)
		if err != nil {
			return nil, err
		}
	}

	m, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse map %q", mapPath)
	}

	return m, nil
}

func readFromArchives(name string, archives []string) ([]byte, error) {
	v, err := openArchives(archives...)
	if err != nil {
		return nil, err
	}

	defer v.Close()

	f, err := v.open(name)
	if err != nil {
		return nil, err
	}

	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %q from archive", name)
	}

	return data, nil
}
