package romloader

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"

	"github.com/bodgit/sevenzip"
	"github.com/nwaples/rardecode/v2"
)

// archiveEntry is the subset shared by zip.File and sevenzip.File.
type archiveEntry interface {
	FileInfo() fs.FileInfo
	Open() (io.ReadCloser, error)
}

// firstROMEntry reads the first non-directory entry whose name carries a
// ROM extension. names[i] is the full in-archive name of entries[i].
func firstROMEntry[E archiveEntry](entries []E, names []string, extensions []string) ([]byte, string, error) {
	for i, e := range entries {
		if e.FileInfo().IsDir() || !isROMFile(names[i], extensions) {
			continue
		}

		rc, err := e.Open()
		if err != nil {
			return nil, "", fmt.Errorf("failed to open %s in archive: %w", names[i], err)
		}
		data, err := limitedRead(rc)
		rc.Close()
		if err != nil {
			return nil, "", fmt.Errorf("failed to read %s: %w", names[i], err)
		}
		return data, filepath.Base(names[i]), nil
	}
	return nil, "", ErrNoROMFile
}

func extractFromZIP(path string, extensions []string) ([]byte, string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open zip: %w", err)
	}
	defer r.Close()

	names := make([]string, len(r.File))
	for i, f := range r.File {
		names[i] = f.Name
	}
	return firstROMEntry(r.File, names, extensions)
}

func extractFrom7z(path string, extensions []string) ([]byte, string, error) {
	r, err := sevenzip.OpenReader(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open 7z: %w", err)
	}
	defer r.Close()

	names := make([]string, len(r.File))
	for i, f := range r.File {
		names[i] = f.Name
	}
	return firstROMEntry(r.File, names, extensions)
}

// RAR is a stream format, so entries are visited in order.
func extractFromRAR(path string, extensions []string) ([]byte, string, error) {
	r, err := rardecode.OpenReader(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open rar: %w", err)
	}
	defer r.Close()

	for {
		header, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, "", fmt.Errorf("failed to read rar entry: %w", err)
		}
		if header.IsDir || !isROMFile(header.Name, extensions) {
			continue
		}

		data, err := limitedRead(r)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read %s: %w", header.Name, err)
		}
		return data, filepath.Base(header.Name), nil
	}

	return nil, "", ErrNoROMFile
}
