package main

import (
	"context"
	"errors"
	"fmt"
	"go_secure_copy/client/comms"
	"go_secure_copy/client/session"
	"go_secure_copy/config"
	"go_secure_copy/constants"
	"go_secure_copy/fileio"
	"go_secure_copy/identity"
	"go_secure_copy/networking"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/akamensky/argparse"
	log "github.com/schollz/logger"
	"github.com/schollz/progressbar/v3"
)

func main() {
	args := argparse.NewParser("client", constants.Title)

	bind := args.String("a", "address", &argparse.Options{Required: false, Help: "Target host address. Overrides transfer.info"})
	port := args.Int("p", "port", &argparse.Options{Required: false, Help: "Target port. Overrides transfer.info"})
	name := args.String("n", "name", &argparse.Options{Required: false, Help: "Client name used when registering"})
	file := args.String("f", "file", &argparse.Options{Required: false, Help: "File path"})
	info := args.String("i", "info", &argparse.Options{Required: false, Help: "Path to transfer.info",
		Default: constants.TRANSFER_INFO_FILE})
	me := args.String("m", "me", &argparse.Options{Required: false, Help: "Path to me.info",
		Default: constants.ME_INFO_FILE})
	key := args.String("k", "key", &argparse.Options{Required: false, Help: "Path to priv.key",
		Default: constants.PRIVATE_KEY_FILE})
	timeout := args.Int("t", "timeout", &argparse.Options{Required: false, Help: "Socket timeout in seconds (0 disables)",
		Default: constants.DEFAULT_TIMEOUT})
	dscp := args.Int("d", "dscp", &argparse.Options{Required: false, Help: "DSCP field for QoS",
		Default: constants.DEFAULT_DSCP})
	mptcp := args.Flag("", "mptcp", &argparse.Options{Help: "Enable Multipath TCP"})
	verbose := args.Flag("v", "verbose", &argparse.Options{Help: "Debug logging"})

	err := args.Parse(os.Args)

	if err != nil {
		fmt.Print(args.Usage(err))
		os.Exit(1)
	}

	if *verbose {
		log.SetLevel("debug")
	} else {
		log.SetLevel("info")
	}

	transfer, err := resolveTransfer(*info, *bind, *port, *name, *file)
	if err != nil {
		fmt.Println(err.Error())
		os.Exit(1)
	}

	fileName := filepath.Clean(transfer.FilePath)

	// Get file info.
	finfo, err := os.Stat(fileName)
	if err != nil {
		fmt.Println(err.Error())
		os.Exit(1)
	}

	// Nothing to send for a folder.
	if finfo.IsDir() {
		fmt.Println("Provided path is directory. Skipping.")
		os.Exit(1)
	}

	checksum, err := fileio.GetFileChecksumCRC32(fileName)
	if err != nil {
		fmt.Println(err.Error())
		os.Exit(1)
	}
	fmt.Printf("Checksum %08x\n", checksum)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deadline := time.Duration(*timeout) * time.Second
	addr := transfer.Address()

	// Connect to host.
	conn, err := comms.Connect(ctx, addr, *dscp, *mptcp, deadline)
	if err != nil {
		fmt.Println(err.Error())
		os.Exit(3)
	}
	fmt.Println("Connected to", addr)

	transport := networking.NewTransport(deadline)
	transport.OnSent = progress(fileName)

	sess, err := session.New(conn, session.Config{
		ClientName: transfer.ClientName,
		FilePath:   fileName,
		Store:      identity.NewFileStore(*me, *key),
		Transport:  transport,
	})
	if err != nil {
		conn.Close()
		fmt.Println(err.Error())
		os.Exit(1)
	}

	begin := time.Now()
	outcome, err := sess.Run(ctx)
	// Close connection.
	conn.Close()
	fmt.Println("Disconnected")

	if err != nil {
		fmt.Println(err.Error())
		if errors.Is(err, networking.ErrTransport) || errors.Is(err, context.Canceled) {
			os.Exit(3)
		}
		os.Exit(1)
	}

	if outcome.LastFailure != "" {
		log.Debugf("last recoverable failure: %s", outcome.LastFailure)
	}
	if !outcome.Success {
		fmt.Println("File transfer failed:", outcome.FatalReason)
		os.Exit(2)
	}
	fmt.Println("Server confirmed file in", time.Since(begin))
}

// resolveTransfer merges transfer.info with command line overrides. A missing
// transfer.info is fine as long as the flags cover every field.
func resolveTransfer(path, address string, port int, name, file string) (*config.TransferInfo, error) {
	transfer, err := config.LoadTransferInfo(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		log.Debugf("%s not found, using command line only", path)
		transfer = &config.TransferInfo{Port: constants.DEFAULT_PORT}
	}

	if address != "" {
		host, p, err := config.SplitAddress(address)
		if err != nil {
			return nil, err
		}
		transfer.Host = host
		// Keep the transfer.info port unless the address carries its own.
		if strings.Contains(address, ":") {
			transfer.Port = p
		}
	}
	if port > 0 {
		transfer.Port = port
	}
	if name != "" {
		transfer.ClientName = name
	}
	if file != "" {
		transfer.FilePath = file
	}

	switch {
	case transfer.Host == "":
		return nil, fmt.Errorf("%w: no server address", config.ErrInvalidTransferInfo)
	case transfer.FilePath == "":
		return nil, fmt.Errorf("%w: no file to send", config.ErrInvalidTransferInfo)
	case transfer.Port <= 0 || transfer.Port > 65535:
		return nil, fmt.Errorf("%w: bad port %d", config.ErrInvalidTransferInfo, transfer.Port)
	}
	return transfer, nil
}

// progress draws a bar for uploads spanning more than a few chunks
func progress(fileName string) func(sent, total int) {
	var bar *progressbar.ProgressBar
	last := 0

	return func(sent, total int) {
		if total < 8*constants.NETWORK_CHUNK_SIZE {
			return
		}
		if bar == nil || sent < last {
			bar = progressbar.NewOptions64(int64(total),
				progressbar.OptionOnCompletion(func() {
					fmt.Fprintln(os.Stderr)
				}),
				progressbar.OptionSetWidth(20),
				progressbar.OptionSetDescription(filepath.Base(fileName)),
				progressbar.OptionSetRenderBlankState(true),
				progressbar.OptionShowBytes(true),
				progressbar.OptionShowCount(),
				progressbar.OptionSetWriter(os.Stderr),
			)
			last = 0
		}
		bar.Add(sent - last)
		last = sent
		if sent == total {
			bar.Finish()
			bar = nil
		}
	}
}
