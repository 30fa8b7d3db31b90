// Package logger provides a thread-safe, leveled logger built on zap.
//
// The logger supports four levels: Debug, Info, Warn, and Error.
// Each entry carries a timestamp, level, an optional worker ID field, and
// the formatted message.
//
// # Basic Usage
//
// Using the default logger:
//
//	logger.Info("", "Pool started")
//	logger.Info("worker-1", "Processing job")
//	logger.Error("worker-1", "Job panicked: %v", r)
//
// Creating a custom logger:
//
//	l := logger.New(os.Stderr, logger.LevelDebug)
//	l.Debug("worker-1", "Debug message")
//
// Writing to a rotated file:
//
//	l, err := logger.NewWithConfig(logger.Config{
//	    Level:      logger.LevelInfo,
//	    File:       "./logs/threads.log",
//	    MaxSizeMB:  50,
//	    MaxBackups: 10,
//	})
//
// # Log Levels
//
// Messages below the configured level are filtered:
//   - LevelDebug: all messages
//   - LevelInfo: Info, Warn, Error
//   - LevelWarn: Warn, Error
//   - LevelError: Error only
package logger
