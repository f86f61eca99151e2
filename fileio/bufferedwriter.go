package fileio

import (
	"bufio"
	"os"
	"path/filepath"
)

// BufferedWriter does buffered writes to a temporary file that replaces the target on Commit
type BufferedWriter struct {
	target string
	file   *os.File
	writer *bufio.Writer
}

// New creates a temporary file next to filename or returns error upon failing to do so
func (b *BufferedWriter) New(filename string, bufferSize int) error {
	file, err := os.CreateTemp(filepath.Dir(filename), filepath.Base(filename)+".*.tmp")
	if err != nil {
		return err
	}
	b.target = filename
	b.file = file
	// New buffered writer.
	b.writer = bufio.NewWriterSize(b.file, bufferSize)
	return nil
}

// WriteLines writes each line followed by a newline
func (b *BufferedWriter) WriteLines(lines ...string) error {
	if b.file == nil {
		panic("cannot write without file handle")
	}
	for _, line := range lines {
		if _, err := b.writer.WriteString(line); err != nil {
			return b.abort(err)
		}
		if err := b.writer.WriteByte('\n'); err != nil {
			return b.abort(err)
		}
	}
	return nil
}

// Commit flushes, syncs and moves the temporary file over the target
func (b *BufferedWriter) Commit() error {
	if err := b.writer.Flush(); err != nil {
		return b.abort(err)
	}
	if err := b.file.Sync(); err != nil {
		return b.abort(err)
	}
	if err := b.file.Close(); err != nil {
		os.Remove(b.file.Name())
		return err
	}
	if err := os.Chmod(b.file.Name(), 0600); err != nil {
		os.Remove(b.file.Name())
		return err
	}
	if err := os.Rename(b.file.Name(), b.target); err != nil {
		os.Remove(b.file.Name())
		return err
	}
	return nil
}

func (b *BufferedWriter) abort(err error) error {
	b.file.Close()
	os.Remove(b.file.Name())
	return err
}
