package main

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"flagrelay/config"
	"flagrelay/server"
	"flagrelay/transport"
	"fmt"
	"io"
	"net"
	"os"

	"github.com/sirupsen/logrus"
)

var log = &logrus.Logger{
	Out:   os.Stdout,
	Level: logrus.InfoLevel,
	Formatter: &logrus.TextFormatter{
		FullTimestamp: true,
	},
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: server <port> [-config <path>] [-key <path>]")
	}
	port := args[0]

	cfg, err := loadConfig(args[1:])
	if err != nil {
		return err
	}

	transportCfg, err := loadTransport(args[1:])
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", "0.0.0.0:"+port)
	if err != nil {
		return err
	}
	log.Infof("listening on %s", ln.Addr())

	sch := server.NewScheduler(ln, cfg, log, transportCfg)

	shutdownCh := make(chan struct{})
	coord := server.NewShutdownCoordinator(log)
	go coord.Wait(shutdownCh)

	return sch.Run(shutdownCh)
}

func loadConfig(args []string) (config.Config, error) {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == "-config" {
			return config.LoadConfig(args[i+1])
		}
	}
	return config.DefaultConfig(), nil
}

// loadTransport optionally wraps every connection in an AEAD layer
// keyed from a 32-byte file on disk, generating one on first run. When
// no -key flag is given, connections are served in the clear.
func loadTransport(args []string) (*transport.Config, error) {
	var keyPath string
	for i := 0; i < len(args)-1; i++ {
		if args[i] == "-key" {
			keyPath = args[i+1]
		}
	}
	if keyPath == "" {
		return nil, nil
	}

	key, err := loadOrCreateKey(keyPath)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	cfg := transport.DefaultConfig(aead)
	return &cfg, nil
}

func loadOrCreateKey(path string) ([]byte, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		key := make([]byte, 32)
		if _, err := io.ReadFull(rand.Reader, key); err != nil {
			return nil, err
		}
		if err := os.WriteFile(path, key, 0600); err != nil {
			return nil, err
		}
	}
	return os.ReadFile(path)
}
