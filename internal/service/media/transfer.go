package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/oshokin/media-cache/internal/client/catalog"
	"github.com/oshokin/media-cache/internal/constants"
	"github.com/oshokin/media-cache/internal/logger"
	"github.com/oshokin/media-cache/internal/utils"
)

// overwriteFileOptions opens a part file for writing from scratch.
const overwriteFileOptions = os.O_CREATE | os.O_TRUNC | os.O_WRONLY

// transferRequest describes a single stream-to-file transfer.
type transferRequest struct {
	// stream is the open source stream.
	stream *catalog.StreamResult
	// destinationPath is the final local path.
	destinationPath string
	// speedLimit caps the transfer rate in bytes per second, 0 disables it.
	speedLimit int64
	// progress observes every written chunk.
	progress io.Writer
}

// partFilePath returns a unique temporary path next to destinationPath.
// Distinct titles may normalize to the same destination, so two transfers
// must never share a part file.
func partFilePath(destinationPath string) string {
	return utils.SetFileExtension(destinationPath+"."+uuid.NewString()[:8], constants.ExtensionPart, false)
}

// transferToFile streams the request into a part file and renames it to the
// destination once the announced length was received. The part file is removed
// on every failure, so a failed transfer never leaves a file at the destination.
func transferToFile(ctx context.Context, request *transferRequest) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(request.destinationPath), constants.DefaultFolderPermissions); err != nil {
		return 0, fmt.Errorf("failed to create destination folder: %w", err)
	}

	tempFilePath := partFilePath(request.destinationPath)

	file, err := os.OpenFile(filepath.Clean(tempFilePath), overwriteFileOptions, constants.DefaultFilePermissions)
	if err != nil {
		return 0, fmt.Errorf("failed to create temporary file: %w", err)
	}

	var (
		isRenamed bool
		isClosed  bool
	)

	defer func() {
		if !isClosed {
			_ = file.Close()
		}

		if isRenamed {
			return
		}

		if removeErr := utils.RemoveIfExists(tempFilePath); removeErr != nil {
			logger.Warnf(ctx, "Failed to clean up temporary file '%s': %v", tempFilePath, removeErr)
		}
	}()

	writer := io.Writer(file)
	if request.progress != nil {
		writer = io.MultiWriter(file, request.progress)
	}

	bytesWritten, err := copyWithSpeedLimit(ctx, writer, request.stream.Body, request.speedLimit)

	// A canceled body read may surface as a transport error or even as a plain EOF.
	if ctxErr := ctx.Err(); ctxErr != nil {
		return bytesWritten, ctxErr
	}

	if err != nil {
		return bytesWritten, fmt.Errorf("failed to write file: %w", err)
	}

	totalBytes := request.stream.TotalBytes
	if totalBytes >= 0 && bytesWritten != totalBytes {
		return bytesWritten, fmt.Errorf(
			"%w: wrote %d bytes, expected %d bytes",
			ErrIncompleteDownload,
			bytesWritten,
			totalBytes,
		)
	}

	if bytesWritten == 0 {
		return 0, ErrEmptyDownload
	}

	if err = file.Sync(); err != nil {
		return bytesWritten, fmt.Errorf("failed to flush file: %w", err)
	}

	isClosed = true

	if err = file.Close(); err != nil {
		return bytesWritten, fmt.Errorf("failed to close file: %w", err)
	}

	if err = os.Rename(tempFilePath, request.destinationPath); err != nil {
		return bytesWritten, fmt.Errorf("failed to move file into place: %w", err)
	}

	isRenamed = true

	return bytesWritten, nil
}

// copyWithSpeedLimit copies src to dst, in one-second slices of speedLimit bytes when a limit is set.
func copyWithSpeedLimit(ctx context.Context, dst io.Writer, src io.Reader, speedLimit int64) (int64, error) {
	if speedLimit <= 0 {
		return io.Copy(dst, src)
	}

	var bytesWritten int64

	for {
		n, err := io.CopyN(dst, src, speedLimit)
		bytesWritten += n

		if errors.Is(err, io.EOF) {
			return bytesWritten, nil
		}

		if err != nil {
			return bytesWritten, err
		}

		// Throttle to respect speed limit.
		select {
		case <-ctx.Done():
			return bytesWritten, ctx.Err()
		case <-time.After(time.Second):
		}
	}
}
