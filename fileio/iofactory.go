package fileio

type IOFactory interface {
	NewReader() FileReader
	NewWriter() FileWriter
}

// BufferedFactory is the default factory returning buffered reader/writer instances
type BufferedFactory struct{}

func (b *BufferedFactory) NewReader() FileReader {
	return new(BufferedReader)
}

func (b *BufferedFactory) NewWriter() FileWriter {
	return new(BufferedWriter)
}

// ReadWholeFile drains a reader from factory into memory
func ReadWholeFile(factory IOFactory, filename string, chunkSize int) ([]byte, error) {
	reader := factory.NewReader()
	if err := reader.New(filename, chunkSize, 4); err != nil {
		return nil, err
	}

	var content []byte
	for chunk := range reader.StartReading() {
		content = append(content, chunk...)
	}

	if err := reader.Err(); err != nil {
		return nil, err
	}
	if content == nil {
		content = []byte{}
	}
	return content, nil
}

// WriteTextFile replaces filename with the given lines
func WriteTextFile(factory IOFactory, filename string, lines ...string) error {
	writer := factory.NewWriter()
	if err := writer.New(filename, 4096); err != nil {
		return err
	}
	if err := writer.WriteLines(lines...); err != nil {
		return err
	}
	return writer.Commit()
}
