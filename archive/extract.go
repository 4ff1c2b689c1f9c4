// Package archive extracts product release archives into scratch
// directories for scanning and uploading.
//
// Both gzip-compressed and plain tarballs are supported, as well as zip
// archives. Entry paths are joined with the scratch root through
// filepath-securejoin so a crafted archive cannot write outside it.
package archive

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	securejoin "github.com/cyphar/filepath-securejoin"
)

// dirPerm is the mode used for directories created during extraction.
const dirPerm = 0o755

// Extract unpacks the archive at path into a fresh scratch directory
// created under baseDir (the system temp dir when baseDir is empty) and
// returns the scratch directory path.
//
// It fails before creating anything when the archive does not exist, so a
// missing archive never leaves an empty scratch directory behind.
func Extract(path, baseDir, prefix string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("archive %s does not exist: %w", path, err)
	}

	scratch, err := os.MkdirTemp(baseDir, "charon-"+prefix+"-")
	if err != nil {
		return "", fmt.Errorf("failed to create scratch directory: %w", err)
	}

	if isZip(path) {
		if err := extractZip(path, scratch); err != nil {
			return "", err
		}
		return scratch, nil
	}

	if err := extractTar(path, scratch); err != nil {
		return "", err
	}
	return scratch, nil
}

func isZip(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	magic := make([]byte, 2)
	if _, err := io.ReadFull(f, magic); err != nil {
		return false
	}
	return magic[0] == 'P' && magic[1] == 'K'
}

func extractTar(path, dir string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open archive %s: %w", path, err)
	}
	defer f.Close()

	var reader io.Reader = f
	if gz, err := gzip.NewReader(f); err == nil {
		defer gz.Close()
		reader = gz
	} else {
		// Not gzip; rewind and read as a plain tarball.
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return fmt.Errorf("failed to rewind archive %s: %w", path, err)
		}
		reader = f
	}

	tr := tar.NewReader(reader)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read archive %s: %w", path, err)
		}

		target, err := securejoin.SecureJoin(dir, hdr.Name)
		if err != nil {
			return fmt.Errorf("invalid entry path %s: %w", hdr.Name, err)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, dirPerm); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", target, err)
			}
		case tar.TypeReg:
			if err := writeEntry(target, tr, hdr.FileInfo().Mode().Perm()); err != nil {
				return err
			}
		default:
			// Symlinks, devices and other special entries are not
			// meaningful in a release tarball.
			continue
		}
	}
}

func extractZip(path, dir string) error {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("failed to open archive %s: %w", path, err)
	}
	defer zr.Close()

	for _, entry := range zr.File {
		target, err := securejoin.SecureJoin(dir, entry.Name)
		if err != nil {
			return fmt.Errorf("invalid entry path %s: %w", entry.Name, err)
		}

		if entry.FileInfo().IsDir() {
			if err := os.MkdirAll(target, dirPerm); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", target, err)
			}
			continue
		}

		rc, err := entry.Open()
		if err != nil {
			return fmt.Errorf("failed to read entry %s: %w", entry.Name, err)
		}
		err = writeEntry(target, rc, entry.FileInfo().Mode().Perm())
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func writeEntry(target string, r io.Reader, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), dirPerm); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", target, err)
	}
	if perm == 0 {
		perm = 0o644
	}
	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", target, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, r); err != nil {
		return fmt.Errorf("failed to write file %s: %w", target, err)
	}
	return nil
}
