package torproc

import (
	"bufio"
	"errors"
	"io"
	"log/slog"
)

// stdoutPath names the stream in OpErrors raised while reading it
const stdoutPath = "stdout"

// monitorStdout reads router log lines until one reports a bootstrap percent
// at or above target, and returns r positioned right after that line.
//
// An [err] line returns a *RouterError carrying the [warn] bodies seen so
// far. End of stream before the target is an OpError wrapping
// io.ErrUnexpectedEOF.
func monitorStdout(r *bufio.Reader, target uint8, logger *slog.Logger) (*bufio.Reader, error) {
	var warnings []string

	for {
		raw, readErr := r.ReadString('\n')
		if raw != "" {
			line, err := ClassifyLine(raw)
			if err != nil {
				return nil, err
			}
			logger.Debug("router stdout", "timestamp", line.Timestamp, "line", line.Body)

			switch line.Class {
			case LineBootstrap:
				if line.Percent >= target {
					logger.Info("router bootstrapped", "percent", line.Percent, "target", target)
					return r, nil
				}
			case LineWarning:
				logger.Warn("router warning", "line", line.Body)
				warnings = append(warnings, line.Body)
			case LineError:
				return nil, &RouterError{
					Line:     line.Body,
					Warnings: append([]string(nil), warnings...),
				}
			}
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				readErr = io.ErrUnexpectedEOF
			}
			return nil, &OpError{Op: OpRead, Path: stdoutPath, Err: readErr}
		}
	}
}
