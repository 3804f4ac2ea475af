package doublearray

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/edsrzf/mmap-go"
	"go.uber.org/zap"

	daerrors "github.com/tamirms/doublearray/errors"
	"github.com/tamirms/doublearray/internal/units"
)

// Save writes the array to path. The file holds the encoded units and
// nothing else, so it can be attached again with Open or Map.
func (d *Dictionary) Save(path string) error {
	if path == "" {
		return daerrors.ErrEmptyPath
	}
	if len(d.view) == 0 {
		return daerrors.ErrNoArray
	}

	aw, err := newArrayWriter(path, len(d.view))
	if err != nil {
		return err
	}
	if err := aw.write(d.view); err != nil {
		return errors.Join(err, os.Remove(path))
	}

	Logger().Debug("saved double array", zap.String("path", path), zap.Int("units", d.view.Len()))
	return nil
}

// WriteTo writes the encoded array to w.
func (d *Dictionary) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(d.view)
	return int64(n), err
}

// Open reads the array saved at path into memory owned by the dictionary.
func (d *Dictionary) Open(path string) error {
	if path == "" {
		return daerrors.ErrEmptyPath
	}
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open array file: %w", err)
	}
	defer file.Close()

	size, err := arrayFileSize(file)
	if err != nil {
		return err
	}

	fadviseSequential(int(file.Fd()), 0, size)
	data := make([]byte, size)
	if _, err := io.ReadFull(file, data); err != nil {
		return fmt.Errorf("read array file: %w", err)
	}

	view := units.View(data)
	if err := view.CheckRoot(); err != nil {
		return err
	}

	d.release()
	d.view = view
	d.size = view.Len()
	Logger().Debug("opened double array", zap.String("path", path), zap.Int("units", d.size))
	return nil
}

// Map memory-maps the array saved at path read-only. The mapping is owned
// by the dictionary and released by Clear, Close or the next attach.
func (d *Dictionary) Map(path string) error {
	if path == "" {
		return daerrors.ErrEmptyPath
	}
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open array file: %w", err)
	}
	// Per POSIX mmap(2), the file may be closed once mapped.
	defer file.Close()

	if _, err := arrayFileSize(file); err != nil {
		return err
	}

	mm, err := mmap.Map(file, mmap.RDONLY, 0)
	if err != nil {
		return fmt.Errorf("mmap array file: %w", err)
	}
	adviseRandom(mm)

	view := units.View(mm)
	if err := view.CheckRoot(); err != nil {
		return errors.Join(err, mm.Unmap())
	}

	d.release()
	d.view = view
	d.size = view.Len()
	d.mmap = mm
	Logger().Debug("mapped double array", zap.String("path", path), zap.Int("units", d.size))
	return nil
}

// arrayFileSize returns the size of an array file, rejecting sizes that
// cannot hold a whole number of units.
func arrayFileSize(file *os.File) (int64, error) {
	stat, err := file.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat array file: %w", err)
	}
	size := stat.Size()
	if size == 0 || size%units.Size != 0 {
		return 0, fmt.Errorf("%w: %d bytes", daerrors.ErrTruncatedFile, size)
	}
	return size, nil
}
