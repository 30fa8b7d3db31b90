// Package main is the entry point for the threads demo.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"threads/internal/cell"
	"threads/internal/config"
	"threads/internal/logger"
	"threads/internal/worker"
)

var (
	version = "dev"
)

// options はコマンドラインで指定された値
type options struct {
	configFile  string
	workers     int
	batchSize   int
	queueDepth  int
	logLevel    string
	panicPolicy string
}

func main() {
	var (
		opts        options
		showVersion = flag.Bool("version", false, "バージョンを表示")
	)
	flag.StringVar(&opts.configFile, "config", "", "設定ファイルパス (YAML/JSON)")
	flag.IntVar(&opts.workers, "workers", 0, "ワーカー数")
	flag.IntVar(&opts.batchSize, "batch", 0, "1 ジョブあたりのセル数")
	flag.IntVar(&opts.queueDepth, "queue-depth", 0, "キュー容量 (0で無制限)")
	flag.StringVar(&opts.logLevel, "log-level", "", "ログレベル (debug, info, warn, error)")
	flag.StringVar(&opts.panicPolicy, "panic-policy", "", "ジョブ panic 時の方針 (isolate, poison)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `threads - fixed-size worker pool demo

Usage:
  threads [options] [task:text ...]

Options:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # デモ入力を 2 ワーカーで処理
  threads

  # フレーズを指定
  threads --workers 4 --batch 2 say:Hi! shout:Hello! shout:Howdy! say:Yo!

  # 設定ファイルから実行
  threads --config threads.yaml
`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("threads version %s\n", version)
		return
	}

	if err := run(opts, flag.Args()); err != nil {
		logger.Error("", "実行エラー: %v", err)
		os.Exit(1)
	}
}

// run は設定を組み立て、バッチをプールに投入してシャットダウンする
func run(opts options, args []string) error {
	fileConfig := &config.FileConfig{}
	if opts.configFile != "" {
		loaded, err := config.LoadFile(opts.configFile)
		if err != nil {
			return fmt.Errorf("設定ファイル読み込みエラー: %w", err)
		}
		fileConfig = loaded
	}
	applyFlags(fileConfig, opts)

	if err := fileConfig.Validate(); err != nil {
		return fmt.Errorf("設定検証エラー: %w", err)
	}

	logConfig, err := fileConfig.ToLoggerConfig()
	if err != nil {
		return err
	}
	log, err := logger.NewWithConfig(logConfig)
	if err != nil {
		return fmt.Errorf("ロガー作成エラー: %w", err)
	}
	defer func() { _ = log.Sync() }()
	logger.Default = log

	batches, err := buildBatches(fileConfig, args)
	if err != nil {
		return err
	}

	poolConfig, err := fileConfig.ToPoolConfig()
	if err != nil {
		return err
	}
	poolConfig.Logger = log

	pool, err := worker.NewWithConfig(poolConfig)
	if err != nil {
		return err
	}
	defer pool.Close()

	// シグナルを受けても同じ手順で停止する
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			fmt.Println("\n中断シグナルを受信、プールを停止中...")
			pool.Close()
		case <-pool.Done():
		}
	}()

	emitter := cell.NewConsoleEmitter(os.Stdout)

	fmt.Println("Processing cells.")
	for _, batch := range batches {
		batch := batch
		if err := pool.Submit(func() { cell.Handle(emitter, batch) }); err != nil {
			if errors.Is(err, worker.ErrDisconnected) {
				break
			}
			return fmt.Errorf("ジョブ投入エラー: %w", err)
		}
	}

	fmt.Println("Shutting down.")
	pool.Close()

	snap := pool.Metrics().Snapshot()
	log.Info("", "Jobs: %d submitted, %d completed, %d panicked (avg %v, p99 %v)",
		snap.SubmittedJobs, snap.CompletedJobs, snap.PanickedJobs, snap.AverageLatency, snap.P99Latency)
	return nil
}

// applyFlags は明示されたフラグで設定を上書きする
func applyFlags(cfg *config.FileConfig, opts options) {
	if opts.workers != 0 {
		cfg.Pool.Workers = opts.workers
	}
	if opts.queueDepth != 0 {
		cfg.Pool.QueueDepth = opts.queueDepth
	}
	if opts.panicPolicy != "" {
		cfg.Pool.PanicPolicy = opts.panicPolicy
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if opts.batchSize != 0 {
		cfg.Demo.BatchSize = opts.batchSize
	}
}

// buildBatches は引数、設定ファイル、デモ入力の順にバッチを決める
func buildBatches(cfg *config.FileConfig, args []string) ([][]cell.Cell, error) {
	if len(args) > 0 {
		cells := make([]cell.Cell, 0, len(args))
		for _, arg := range args {
			c, err := cell.ParseCell(arg)
			if err != nil {
				return nil, fmt.Errorf("引数 %q: %w", arg, err)
			}
			cells = append(cells, c)
		}
		return cell.Partition(cells, cfg.Demo.BatchSize), nil
	}

	batches, err := cfg.ToBatches()
	if err != nil {
		return nil, err
	}
	if batches != nil {
		return batches, nil
	}
	return cell.DemoBatches(), nil
}
