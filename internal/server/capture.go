package server

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/nameloc/internal/logging"
)

// Frame directions recorded in a transcript
const (
	DirectionInbound  = "client->server"
	DirectionOutbound = "server->client"
)

// TranscriptEntry is one captured websocket frame
type TranscriptEntry struct {
	Timestamp  time.Time       `json:"timestamp"`
	Seq        int             `json:"seq"`
	RemoteAddr string          `json:"remote_addr"`
	Direction  string          `json:"direction"`
	Frame      json.RawMessage `json:"frame"`
}

// Transcript appends a session's frames to a JSONL file. A nil Transcript
// records nothing, so callers need not check whether capture is enabled.
type Transcript struct {
	mu         sync.Mutex
	file       *os.File
	remoteAddr string
	seq        int
}

// OpenTranscript starts a capture file for one session under dir. The
// session id keeps files apart when one address opens several sessions. It
// returns nil when dir is empty or the file cannot be created.
func OpenTranscript(dir, remoteAddr, sessionID string) *Transcript {
	if dir == "" {
		return nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		logging.Error("Failed to create capture directory", zap.String("dir", dir), zap.Error(err))
		return nil
	}

	safeAddr := strings.NewReplacer(":", "_", "[", "", "]", "").Replace(remoteAddr)
	filename := filepath.Join(dir, fmt.Sprintf("session-%s-%s-%s.jsonl",
		time.Now().Format("20060102-150405"), safeAddr, sessionID))

	f, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		logging.Error("Failed to open capture file",
			zap.String("filename", filename),
			zap.Error(err),
		)
		return nil
	}

	logging.Debug("Capturing websocket session", zap.String("filename", filename))
	return &Transcript{file: f, remoteAddr: remoteAddr}
}

// Record appends one frame
func (t *Transcript) Record(direction string, frame interface{}) {
	if t == nil {
		return
	}

	raw, err := json.Marshal(frame)
	if err != nil {
		logging.Error("Failed to marshal captured frame", zap.Error(err))
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.seq++
	data, err := json.Marshal(TranscriptEntry{
		Timestamp:  time.Now(),
		Seq:        t.seq,
		RemoteAddr: t.remoteAddr,
		Direction:  direction,
		Frame:      raw,
	})
	if err != nil {
		logging.Error("Failed to marshal transcript entry", zap.Error(err))
		return
	}

	if _, err := t.file.Write(append(data, '\n')); err != nil {
		logging.Error("Failed to write to capture file",
			zap.String("filename", t.file.Name()),
			zap.Error(err),
		)
	}
}

// Close closes the capture file
func (t *Transcript) Close() {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	_ = t.file.Close()
}
