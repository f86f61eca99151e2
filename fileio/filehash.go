package fileio

import (
	"hash/crc32"
	"io"
	"os"
)

// ChecksumCRC32 returns CRC32 (IEEE) checksum of data
func ChecksumCRC32(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}

// GetFileChecksumCRC32 returns CRC32 checksum of given file
func GetFileChecksumCRC32(file string) (uint32, error) {
	handle, err := os.Open(file)
	if err != nil {
		return 0, err
	}
	defer handle.Close()

	hash := crc32.New(crc32.IEEETable)
	if _, err := io.CopyBuffer(hash, handle, make([]byte, 64*1024)); err != nil {
		return 0, err
	}

	return hash.Sum32(), nil
}
