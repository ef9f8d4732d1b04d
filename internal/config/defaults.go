package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

const (
	userAgent           = "signedplay/1.0"
	connectTimeout      = 30 * time.Second
	tlsHandshakeTimeout = 10 * time.Second
	idleTimeout         = 90 * time.Second
	readBufferSize      = 32 * 1024
	defaultScheme       = "https"
	chunkSize           = 1 << 20
	sniffLimit          = 3072
	logMaxSizeMB        = 10
	logMaxBackups       = 3
	journalBuffer       = 64
)

var (
	stateDir    = filepath.Join(xdg.StateHome, configFileName)
	logFile     = filepath.Join(stateDir, configFileName+".log")
	journalPath = filepath.Join(stateDir, "journal.db")
)
