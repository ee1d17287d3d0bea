package utils

import (
	"io"

	"github.com/MrSnakeDoc/nvrsync/internal/logger"
)

// CloseLogged closes c during shutdown and logs the outcome under name.
func CloseLogged(c io.Closer, name string, log logger.Logger) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		log.Warn("failed to close "+name, logger.Error(err))
		return
	}
	log.Info("✅ " + name + " closed cleanly")
}
