// Package archive packs generated test data into a zstd compressed tarball.
package archive

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// Ext is the file extension of archives written by Pack.
const Ext = ".tar.zst"

// Pack writes the files and directories named by entries, relative to root,
// into a tar stream compressed with zstd at dst. Directories are walked in
// lexical order. Missing entries are skipped. It returns the number of
// regular files written.
func Pack(dst string, root string, entries []string) (int, error) {
	out, err := os.Create(dst)
	if err != nil {
		return 0, fmt.Errorf("failed to create archive %s: %w", dst, err)
	}
	defer out.Close()

	enc, err := zstd.NewWriter(out)
	if err != nil {
		return 0, fmt.Errorf("failed to create zstd writer: %w", err)
	}
	tw := tar.NewWriter(enc)

	count := 0
	for _, entry := range entries {
		n, err := addTree(tw, root, filepath.Clean(entry))
		count += n
		if err != nil {
			enc.Close()
			return count, err
		}
	}

	if err := tw.Close(); err != nil {
		enc.Close()
		return count, fmt.Errorf("failed to finish tar stream: %w", err)
	}
	if err := enc.Close(); err != nil {
		return count, fmt.Errorf("failed to finish zstd stream: %w", err)
	}
	return count, out.Close()
}

func addTree(tw *tar.Writer, root, entry string) (int, error) {
	count := 0
	err := filepath.WalkDir(filepath.Join(root, entry), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == filepath.Join(root, entry) {
				return fs.SkipAll
			}
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() && !info.IsDir() {
			return nil
		}

		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(rel)
		if info.IsDir() {
			hdr.Name += "/"
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return fmt.Errorf("failed to write header for %s: %w", rel, err)
		}
		if info.IsDir() {
			return nil
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		if _, err := io.Copy(tw, f); err != nil {
			return fmt.Errorf("failed to write %s: %w", rel, err)
		}
		count++
		return nil
	})
	return count, err
}

// Unpack extracts an archive written by Pack into dir.
func Unpack(src string, dir string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open archive %s: %w", src, err)
	}
	defer in.Close()

	dec, err := zstd.NewReader(in)
	if err != nil {
		return fmt.Errorf("failed to create zstd reader: %w", err)
	}
	defer dec.Close()

	tr := tar.NewReader(dec)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read archive: %w", err)
		}

		name := filepath.FromSlash(hdr.Name)
		if !filepath.IsLocal(name) {
			return fmt.Errorf("archive entry %q escapes the target directory", hdr.Name)
		}
		target := filepath.Join(dir, name)

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeFile(target, tr, hdr.FileInfo().Mode().Perm()); err != nil {
				return err
			}
		}
	}
}

func writeFile(path string, r io.Reader, perm fs.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return fmt.Errorf("failed to extract %s: %w", path, err)
	}
	return f.Close()
}

// FileName turns a problem title into an archive file name.
func FileName(title string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, strings.TrimSpace(title))
	if name == "" {
		name = "problem"
	}
	return name + Ext
}
