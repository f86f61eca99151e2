package fileio

type FileWriter interface {
	New(filename string, bufferSize int) error
	WriteLines(lines ...string) error
	Commit() error
}
