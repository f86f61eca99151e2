package fileio

import (
	"bufio"
	"errors"
	"io"
	"os"
)

// BufferedReader does buffered file reads
type BufferedReader struct {
	file      *os.File
	reader    *bufio.Reader
	chunkSize int
	rqLen     int
	err       error
}

// New opens file for reading or returns error upon failing to do so
func (b *BufferedReader) New(filename string, chunkSize, numchunks int) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return err
	}
	if info.IsDir() {
		file.Close()
		return errors.New(filename + " is a directory")
	}
	b.file = file
	b.chunkSize = chunkSize
	b.rqLen = numchunks
	b.reader = bufio.NewReaderSize(b.file, chunkSize)
	return nil
}

// StartReading starts a goroutine to read file contents in chunks
func (b *BufferedReader) StartReading() chan []byte {
	if b.file == nil {
		panic("cannot start reading without file handle")
	}
	outChan := make(chan []byte, b.rqLen)
	go func(channel chan []byte) {
		for {
			buf := make([]byte, b.chunkSize)
			// Read from file.
			read, err := b.reader.Read(buf)
			if read > 0 {
				channel <- buf[:read]
			}
			if err != nil {
				// File has been fully consumed.
				if !errors.Is(err, io.EOF) {
					b.err = err
				}
				break
			}
		}
		b.file.Close()
		close(outChan)
	}(outChan)
	return outChan
}

// Err returns the read error, if any, once the channel from StartReading is closed
func (b *BufferedReader) Err() error {
	return b.err
}
