package scenarios

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/guvitest/internal/browser"
	"github.com/ternarybob/guvitest/internal/common"
)

const (
	screenshotFile = "screenshot.png"
	pageHTMLFile   = "page.html"
	pageMarkdown   = "page.md"
)

// captureFailure saves what the browser was showing when a scenario failed.
// It returns the paths written; capture errors are logged and never fail the run.
func captureFailure(ctx context.Context, driver browser.Driver, dir string, output common.OutputConfig, logger arbor.ILogger) []string {
	if !output.Screenshots && !output.PageDumps {
		return nil
	}

	snap, ok := driver.(browser.Snapshotter)
	if !ok {
		logger.Debug().Msg("Driver cannot take snapshots, skipping failure artifacts")
		return nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		logger.Warn().Err(err).Str("dir", dir).Msg("Failed to create artifact directory")
		return nil
	}

	var written []string

	if output.Screenshots {
		if png, err := snap.Screenshot(ctx); err != nil {
			logger.Warn().Err(err).Msg("Failed to capture screenshot")
		} else if path, err := writeArtifact(dir, screenshotFile, png); err != nil {
			logger.Warn().Err(err).Msg("Failed to save screenshot")
		} else {
			written = append(written, path)
		}
	}

	if output.PageDumps {
		html, err := snap.PageHTML(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to capture page HTML")
			return written
		}
		if path, err := writeArtifact(dir, pageHTMLFile, []byte(html)); err != nil {
			logger.Warn().Err(err).Msg("Failed to save page HTML")
		} else {
			written = append(written, path)
		}

		pageURL, _ := driver.Location(ctx)
		markdown, err := toMarkdown(html, pageURL)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to convert page to markdown")
			return written
		}
		if path, err := writeArtifact(dir, pageMarkdown, []byte(markdown)); err != nil {
			logger.Warn().Err(err).Msg("Failed to save page markdown")
		} else {
			written = append(written, path)
		}
	}

	return written
}

func writeArtifact(dir, name string, data []byte) (string, error) {
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// toMarkdown renders page HTML as markdown so failures can be read without a browser
func toMarkdown(html, baseURL string) (string, error) {
	converter := md.NewConverter(baseURL, true, nil)
	return converter.ConvertString(html)
}
