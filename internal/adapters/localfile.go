package adapters

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/distgate/distgate/internal/config"
	"github.com/distgate/distgate/internal/logging"
)

// LocalFileAdapter delivers artifacts by copying them into a destination
// directory. Used for channels like a notes vault where published output
// lands on the local filesystem.
type LocalFileAdapter struct {
	channelName string
	overwrite   bool
	logger      zerolog.Logger
}

// NewLocalFileAdapter creates a filesystem adapter for the named channel.
func NewLocalFileAdapter(channelName string, cfg config.ChannelConfig) *LocalFileAdapter {
	return &LocalFileAdapter{
		channelName: channelName,
		overwrite:   cfg.OverwriteExisting,
		logger:      logging.Component("adapter").With().Str("channel", channelName).Logger(),
	}
}

// Publish copies the source file into the destination directory, creating
// the directory if needed. When overwriting is disabled and the target file
// exists, the publish fails cleanly.
func (a *LocalFileAdapter) Publish(ctx context.Context, sourceFile, destination string, metadata map[string]string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	if _, err := os.Stat(sourceFile); err != nil {
		a.logger.Error().Str("source_file", sourceFile).Err(err).Msg("source file does not exist")
		return false, nil
	}

	if err := os.MkdirAll(destination, 0o755); err != nil {
		a.logger.Error().Str("destination", destination).Err(err).Msg("failed to create destination directory")
		return false, nil
	}

	target := filepath.Join(destination, filepath.Base(sourceFile))

	if !a.overwrite {
		if _, err := os.Stat(target); err == nil {
			a.logger.Error().Str("target", target).Msg("target file exists and overwrite is disabled")
			return false, nil
		}
	}

	if err := copyFile(sourceFile, target); err != nil {
		a.logger.Error().Str("target", target).Err(err).Msg("failed to copy file")
		return false, nil
	}

	a.logger.Info().Str("source_file", sourceFile).Str("target", target).Msg("published file")
	return true, nil
}

// Rollback deletes the delivered file. Rolling back an already-absent file
// is treated as success: the reversal is idempotent in effect.
func (a *LocalFileAdapter) Rollback(ctx context.Context, destination string, metadata map[string]string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	target := destination
	if info, err := os.Stat(destination); err == nil && info.IsDir() {
		// The recorded destination is the directory the file was copied
		// into; recover the file name from the original source path.
		source := metadata["source_file"]
		if source == "" {
			a.logger.Error().Str("destination", destination).Msg("cannot roll back directory destination without source file name")
			return false, nil
		}
		target = filepath.Join(destination, filepath.Base(source))
	}

	if _, err := os.Stat(target); os.IsNotExist(err) {
		a.logger.Warn().Str("target", target).Msg("file to roll back does not exist, treating as success")
		return true, nil
	}

	if err := os.Remove(target); err != nil {
		a.logger.Error().Str("target", target).Err(err).Msg("failed to remove file")
		return false, nil
	}

	a.logger.Info().Str("target", target).Msg("rolled back file")
	return true, nil
}

// Validate reports whether the adapter configuration is usable.
func (a *LocalFileAdapter) Validate() bool {
	return true
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create target: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("failed to copy contents: %w", err)
	}

	return out.Close()
}

// Ensure LocalFileAdapter implements ChannelAdapter
var _ ChannelAdapter = (*LocalFileAdapter)(nil)
