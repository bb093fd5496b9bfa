// Log file rotation for the stroke engine daemon.
//
// Long-running machine installs append to a single log file; rotation keeps
// its size bounded without external logrotate configuration.
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RotatingFileWriter implements io.Writer with size-based file rotation.
type RotatingFileWriter struct {
	mu          sync.Mutex
	filename    string
	maxSize     int64
	maxBackups  int
	currentSize int64
	file        *os.File
}

// RotationConfig configures log file rotation.
type RotationConfig struct {
	// Filename is the path to the log file.
	Filename string

	// MaxSize is the maximum size in megabytes before rotation. Default 10.
	MaxSize int

	// MaxBackups is the maximum number of rotated files kept. Default 5.
	MaxBackups int
}

// NewRotatingFileWriter creates a rotating file writer.
func NewRotatingFileWriter(cfg RotationConfig) (*RotatingFileWriter, error) {
	if cfg.Filename == "" {
		return nil, fmt.Errorf("log: rotation filename is required")
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = 10
	}
	if cfg.MaxBackups <= 0 {
		cfg.MaxBackups = 5
	}

	w := &RotatingFileWriter{
		filename:   cfg.Filename,
		maxSize:    int64(cfg.MaxSize) * 1024 * 1024,
		maxBackups: cfg.MaxBackups,
	}
	if err := w.openFile(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *RotatingFileWriter) openFile() error {
	if err := os.MkdirAll(filepath.Dir(w.filename), 0755); err != nil {
		return fmt.Errorf("log: create log directory: %w", err)
	}
	f, err := os.OpenFile(w.filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("log: open log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("log: stat log file: %w", err)
	}
	w.file = f
	w.currentSize = info.Size()
	return nil
}

// Write implements io.Writer, rotating first if the write would overflow.
func (w *RotatingFileWriter) Write(p []byte) (n int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.currentSize+int64(len(p)) > w.maxSize {
		if err := w.rotate(); err != nil {
			return 0, fmt.Errorf("log: rotate: %w", err)
		}
	}

	n, err = w.file.Write(p)
	w.currentSize += int64(n)
	return n, err
}

func (w *RotatingFileWriter) rotate() error {
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("close current file: %w", err)
	}

	timestamp := time.Now().Format("20060102-150405")
	ext := filepath.Ext(w.filename)
	base := strings.TrimSuffix(w.filename, ext)
	rotated := fmt.Sprintf("%s.%s%s", base, timestamp, ext)

	if err := os.Rename(w.filename, rotated); err != nil {
		w.openFile()
		return fmt.Errorf("rename log file: %w", err)
	}

	go w.cleanOldBackups()

	return w.openFile()
}

func (w *RotatingFileWriter) cleanOldBackups() {
	dir := filepath.Dir(w.filename)
	base := filepath.Base(w.filename)
	ext := filepath.Ext(base)
	prefix := strings.TrimSuffix(base, ext)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}

	var backups []string
	for _, entry := range entries {
		name := entry.Name()
		if name != base && isRotatedFile(name, prefix, ext) {
			backups = append(backups, filepath.Join(dir, name))
		}
	}

	sort.Slice(backups, func(i, j int) bool {
		iInfo, _ := os.Stat(backups[i])
		jInfo, _ := os.Stat(backups[j])
		if iInfo == nil || jInfo == nil {
			return false
		}
		return iInfo.ModTime().Before(jInfo.ModTime())
	})

	for len(backups) > w.maxBackups {
		os.Remove(backups[0])
		backups = backups[1:]
	}
}

// isRotatedFile reports whether name matches prefix.YYYYMMDD-HHMMSS.ext.
func isRotatedFile(name, prefix, ext string) bool {
	if !strings.HasPrefix(name, prefix+".") {
		return false
	}
	name = strings.TrimSuffix(name, ext)
	name = strings.TrimPrefix(name, prefix+".")
	if len(name) != 15 || name[8] != '-' {
		return false
	}
	_, err1 := strconv.Atoi(name[:8])
	_, err2 := strconv.Atoi(name[9:])
	return err1 == nil && err2 == nil
}

// Close closes the underlying file.
func (w *RotatingFileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file != nil {
		return w.file.Close()
	}
	return nil
}

// CurrentSize returns the current file size in bytes.
func (w *RotatingFileWriter) CurrentSize() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.currentSize
}

// NewFileLogger creates a logger that writes to a rotating file.
func NewFileLogger(prefix string, cfg RotationConfig) (*Logger, *RotatingFileWriter, error) {
	writer, err := NewRotatingFileWriter(cfg)
	if err != nil {
		return nil, nil, err
	}
	logger := New(prefix)
	logger.SetWriter(writer)
	logger.SetColorize(false)
	return logger, writer, nil
}

// NewConsoleAndFileLogger creates a logger writing to both stderr and a
// rotating file.
func NewConsoleAndFileLogger(prefix string, cfg RotationConfig) (*Logger, *RotatingFileWriter, error) {
	writer, err := NewRotatingFileWriter(cfg)
	if err != nil {
		return nil, nil, err
	}
	logger := New(prefix)
	logger.SetWriter(io.MultiWriter(os.Stderr, writer))
	logger.SetColorize(false)
	return logger, writer, nil
}
