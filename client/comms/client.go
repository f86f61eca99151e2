package comms

import (
	"context"
	"net"
	"time"

	log "github.com/schollz/logger"
	"golang.org/x/net/ipv4"
)

// Connect opens TCP connection to target host address
func Connect(ctx context.Context, address string, dscp int, mptcp bool, timeout time.Duration) (net.Conn, error) {
	_, err := net.ResolveTCPAddr("tcp", address)
	if err != nil {
		return nil, err
	}
	dial := &net.Dialer{Timeout: timeout}
	// Set MPTCP.
	dial.SetMultipathTCP(mptcp)
	// Connect to host.
	conn, err := dial.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, err
	}

	if tcp, ok := conn.(*net.TCPConn); ok {
		// Set TCP_NODELAY to always immediately send.
		tcp.SetNoDelay(true)
	}
	// Set DSCP. NOTE: On Windows by default it will not apply the value.
	if dscp > 0 {
		if err := ipv4.NewConn(conn).SetTOS(dscp << 2); err != nil {
			log.Debugf("could not set DSCP %d: %v", dscp, err)
		}
	}

	return conn, nil
}
