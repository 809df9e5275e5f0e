package logging

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"go.uber.org/zap"
)

var unsafeFilenameChars = regexp.MustCompile(`[\\/*?:"<>|]`)

// SanitizeFilename strips characters that are unsafe in file names and
// maps spaces to underscores.
func SanitizeFilename(name string) string {
	return strings.ReplaceAll(unsafeFilenameChars.ReplaceAllString(name, ""), " ", "_")
}

// ChatLogs hands out one logger per chat, writing to
// <logsDir>/<sanitized-name>_<chatid>.log. Loggers are created lazily
// and kept for the process lifetime.
type ChatLogs struct {
	mu      sync.Mutex
	logsDir string
	loggers map[int64]*zap.Logger
	root    *zap.Logger
}

// NewChatLogs creates the registry. root receives a warning when a
// per-chat log file cannot be opened; the chat then logs to a no-op.
func NewChatLogs(logsDir string, root *zap.Logger) *ChatLogs {
	if root == nil {
		root = zap.NewNop()
	}
	return &ChatLogs{
		logsDir: logsDir,
		loggers: make(map[int64]*zap.Logger),
		root:    root,
	}
}

// For returns the chat's logger, creating its file on first use.
func (c *ChatLogs) For(chatID int64, fullName string) *zap.Logger {
	c.mu.Lock()
	defer c.mu.Unlock()

	if logger, ok := c.loggers[chatID]; ok {
		return logger
	}

	path := filepath.Join(c.logsDir, fmt.Sprintf("%s_%d.log", SanitizeFilename(fullName), chatID))
	logger, err := newFileLogger(path)
	if err != nil {
		c.root.Warn("failed to open chat log file",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
		logger = zap.NewNop()
	}
	c.loggers[chatID] = logger
	return logger
}
