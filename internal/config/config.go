package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"threads/internal/cell"
	"threads/internal/logger"
	"threads/internal/worker"

	"gopkg.in/yaml.v3"
)

// FileConfig は設定ファイルの構造
type FileConfig struct {
	Pool PoolConfig `yaml:"pool" json:"pool"`
	Log  LogConfig  `yaml:"log" json:"log"`
	Demo DemoConfig `yaml:"demo" json:"demo"`
}

// PoolConfig はワーカープール設定
type PoolConfig struct {
	Workers     int    `yaml:"workers" json:"workers"`
	QueueDepth  int    `yaml:"queue_depth" json:"queue_depth"`
	PanicPolicy string `yaml:"panic_policy" json:"panic_policy"`
}

// LogConfig はログ設定
type LogConfig struct {
	Level      string `yaml:"level" json:"level"`
	File       string `yaml:"file" json:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" json:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" json:"max_age_days"`
	Compress   bool   `yaml:"compress" json:"compress"`
}

// DemoConfig はデモ入力の設定
type DemoConfig struct {
	BatchSize int          `yaml:"batch_size" json:"batch_size"`
	Cells     []CellConfig `yaml:"cells" json:"cells"`
}

// CellConfig は 1 セルの設定
type CellConfig struct {
	Task string `yaml:"task" json:"task"`
	Text string `yaml:"text" json:"text"`
}

// LoadFile は設定ファイルを読み込む
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config FileConfig
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}

	return &config, nil
}

// Validate は設定を検証する
func (f *FileConfig) Validate() error {
	if f.Pool.Workers < 0 {
		return fmt.Errorf("pool.workers must be non-negative")
	}
	if f.Pool.QueueDepth < 0 {
		return fmt.Errorf("pool.queue_depth must be non-negative")
	}
	if _, err := worker.ParsePanicPolicy(f.Pool.PanicPolicy); err != nil {
		return fmt.Errorf("pool.panic_policy: %w", err)
	}

	if _, err := logger.ParseLevel(f.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if f.Log.MaxSizeMB < 0 || f.Log.MaxBackups < 0 || f.Log.MaxAgeDays < 0 {
		return fmt.Errorf("log rotation limits must be non-negative")
	}

	if f.Demo.BatchSize < 0 {
		return fmt.Errorf("demo.batch_size must be non-negative")
	}
	for i, c := range f.Demo.Cells {
		if _, err := cell.ParseTask(c.Task); err != nil {
			return fmt.Errorf("demo.cells[%d]: %w", i, err)
		}
	}

	return nil
}

// ToPoolConfig は worker.Config に変換する。未指定の項目はデフォルト値を使う
func (f *FileConfig) ToPoolConfig() (worker.Config, error) {
	config := worker.DefaultConfig()

	if f.Pool.Workers > 0 {
		config.NumWorkers = f.Pool.Workers
	}
	if f.Pool.QueueDepth > 0 {
		config.QueueDepth = f.Pool.QueueDepth
	}
	policy, err := worker.ParsePanicPolicy(f.Pool.PanicPolicy)
	if err != nil {
		return config, err
	}
	config.PanicPolicy = policy

	return config, nil
}

// ToLoggerConfig は logger.Config に変換する
func (f *FileConfig) ToLoggerConfig() (logger.Config, error) {
	level, err := logger.ParseLevel(f.Log.Level)
	if err != nil {
		return logger.Config{}, err
	}
	return logger.Config{
		Level:      level,
		File:       f.Log.File,
		MaxSizeMB:  f.Log.MaxSizeMB,
		MaxBackups: f.Log.MaxBackups,
		MaxAgeDays: f.Log.MaxAgeDays,
		Compress:   f.Log.Compress,
	}, nil
}

// ToBatches はデモのセルをバッチに分ける。セルが無ければ nil を返す
func (f *FileConfig) ToBatches() ([][]cell.Cell, error) {
	if len(f.Demo.Cells) == 0 {
		return nil, nil
	}

	cells := make([]cell.Cell, 0, len(f.Demo.Cells))
	for i, c := range f.Demo.Cells {
		task, err := cell.ParseTask(c.Task)
		if err != nil {
			return nil, fmt.Errorf("demo.cells[%d]: %w", i, err)
		}
		cells = append(cells, cell.Cell{Text: c.Text, Task: task})
	}

	return cell.Partition(cells, f.Demo.BatchSize), nil
}
