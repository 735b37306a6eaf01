package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/devicelab-dev/inji-pages/pkg/logger"
)

// artifactSource is the part of the Appium client needed to capture screen state.
type artifactSource interface {
	SessionID() string
	Screenshot() ([]byte, error)
	Source() (string, error)
}

// captureArtifacts saves a screenshot and the page source into dir and returns the written paths.
// Capture failures are logged and skipped.
func captureArtifacts(src artifactSource, dir, command string) []string {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Warn("Failed to create artifacts dir %s: %v", dir, err)
		return nil
	}
	prefix := filepath.Join(dir, fmt.Sprintf("%s-%s-%s", command, src.SessionID(), time.Now().Format("150405")))

	var saved []string
	if data, err := src.Screenshot(); err != nil {
		logger.Warn("Failed to capture screenshot: %v", err)
	} else if len(data) > 0 {
		if path, err := writeArtifact(prefix+".png", data); err == nil {
			saved = append(saved, path)
		}
	}

	if source, err := src.Source(); err != nil {
		logger.Warn("Failed to capture page source: %v", err)
	} else if source != "" {
		if path, err := writeArtifact(prefix+".xml", []byte(source)); err == nil {
			saved = append(saved, path)
		}
	}
	return saved
}

func writeArtifact(path string, data []byte) (string, error) {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		logger.Warn("Failed to write %s: %v", path, err)
		return "", err
	}
	logger.Info("Saved artifact %s (%d bytes)", path, len(data))
	return path, nil
}
