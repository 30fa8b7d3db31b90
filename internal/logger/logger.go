package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Level はログレベルを表す
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l Level) zapLevel() zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// ParseLevel は文字列からログレベルを得る
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level: %s", s)
	}
}

// Config はファイル出力を含むロガー設定
type Config struct {
	Level      Level
	File       string // 空なら標準出力
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Logger はスレッドセーフなロガー
type Logger struct {
	zl    *zap.Logger
	level zap.AtomicLevel
}

// Default はデフォルトのロガー
var Default = New(os.Stdout, LevelInfo)

// New は out に書き出すロガーを作成する
func New(out io.Writer, minLevel Level) *Logger {
	return newLogger(zapcore.Lock(zapcore.AddSync(out)), minLevel)
}

// NewWithConfig は設定からロガーを作成する
// File が指定されていれば lumberjack でローテーションする
func NewWithConfig(cfg Config) (*Logger, error) {
	if cfg.File == "" {
		return New(os.Stdout, cfg.Level), nil
	}
	if cfg.MaxSizeMB < 0 || cfg.MaxBackups < 0 || cfg.MaxAgeDays < 0 {
		return nil, fmt.Errorf("log rotation limits must be non-negative")
	}
	sink := zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	})
	return newLogger(sink, cfg.Level), nil
}

func newLogger(sink zapcore.WriteSyncer, minLevel Level) *Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	level := zap.NewAtomicLevelAt(minLevel.zapLevel())
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), sink, level)
	return &Logger{
		zl:    zap.New(core),
		level: level,
	}
}

// SetLevel はログレベルを設定する
func (l *Logger) SetLevel(level Level) {
	l.level.SetLevel(level.zapLevel())
}

// Sync はバッファをフラッシュする
func (l *Logger) Sync() error {
	return l.zl.Sync()
}

// log は指定されたレベルでログを出力する
func (l *Logger) log(level zapcore.Level, workerID string, format string, args ...any) {
	ce := l.zl.Check(level, fmt.Sprintf(format, args...))
	if ce == nil {
		return
	}
	if workerID != "" {
		ce.Write(zap.String("worker", workerID))
		return
	}
	ce.Write()
}

// Debug はデバッグログを出力する
func (l *Logger) Debug(workerID string, format string, args ...any) {
	l.log(zapcore.DebugLevel, workerID, format, args...)
}

// Info は情報ログを出力する
func (l *Logger) Info(workerID string, format string, args ...any) {
	l.log(zapcore.InfoLevel, workerID, format, args...)
}

// Warn は警告ログを出力する
func (l *Logger) Warn(workerID string, format string, args ...any) {
	l.log(zapcore.WarnLevel, workerID, format, args...)
}

// Error はエラーログを出力する
func (l *Logger) Error(workerID string, format string, args ...any) {
	l.log(zapcore.ErrorLevel, workerID, format, args...)
}

// グローバル関数（デフォルトロガーを使用）

// Debug はデバッグログを出力する
func Debug(workerID string, format string, args ...any) {
	Default.Debug(workerID, format, args...)
}

// Info は情報ログを出力する
func Info(workerID string, format string, args ...any) {
	Default.Info(workerID, format, args...)
}

// Warn は警告ログを出力する
func Warn(workerID string, format string, args ...any) {
	Default.Warn(workerID, format, args...)
}

// Error はエラーログを出力する
func Error(workerID string, format string, args ...any) {
	Default.Error(workerID, format, args...)
}
