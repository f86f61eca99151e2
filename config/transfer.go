package config

import (
	"errors"
	"fmt"
	"go_secure_copy/constants"
	"go_secure_copy/fileio"
	"net"
	"strconv"
	"strings"
)

var ErrInvalidTransferInfo = errors.New("invalid transfer info")

// TransferInfo is the content of transfer.info
type TransferInfo struct {
	Host       string
	Port       int
	ClientName string
	FilePath   string
}

// Address returns host:port
func (t *TransferInfo) Address() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
}

// LoadTransferInfo reads transfer.info from path
func LoadTransferInfo(path string) (*TransferInfo, error) {
	content, err := fileio.ReadWholeFile(new(fileio.BufferedFactory), path, 4096)
	if err != nil {
		return nil, err
	}
	return ParseTransferInfo(string(content))
}

// ParseTransferInfo parses the three transfer.info lines: address, client name, file path
func ParseTransferInfo(text string) (*TransferInfo, error) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	if len(lines) < 3 {
		return nil, fmt.Errorf("%w: want 3 lines, got %d", ErrInvalidTransferInfo, len(lines))
	}

	host, port, err := SplitAddress(strings.TrimSpace(lines[0]))
	if err != nil {
		return nil, err
	}
	info := &TransferInfo{
		Host:       host,
		Port:       port,
		ClientName: strings.TrimSpace(lines[1]),
		FilePath:   strings.TrimSpace(lines[2]),
	}
	if info.ClientName == "" {
		return nil, fmt.Errorf("%w: empty client name", ErrInvalidTransferInfo)
	}
	if info.FilePath == "" {
		return nil, fmt.Errorf("%w: empty file path", ErrInvalidTransferInfo)
	}
	return info, nil
}

// SplitAddress splits "host:port". A missing port falls back to the default one.
func SplitAddress(address string) (string, int, error) {
	if address == "" {
		return "", 0, fmt.Errorf("%w: empty address", ErrInvalidTransferInfo)
	}
	if !strings.Contains(address, ":") {
		return address, constants.DEFAULT_PORT, nil
	}
	host, portStr, err := net.SplitHostPort(address)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrInvalidTransferInfo, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return "", 0, fmt.Errorf("%w: bad port %q", ErrInvalidTransferInfo, portStr)
	}
	return host, port, nil
}
