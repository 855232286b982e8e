package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/taoyao-code/gnss-config/internal/channel"
	cfgpkg "github.com/taoyao-code/gnss-config/internal/config"
	"github.com/taoyao-code/gnss-config/internal/exchange"
	"github.com/taoyao-code/gnss-config/internal/logging"
	"github.com/taoyao-code/gnss-config/internal/protocol/ubx"
)

// 退出码约定：0成功，1交换失败，2参数/配置/通道等前置错误
const (
	exitOK       = 0
	exitExchange = 1
	exitUsage    = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := pflag.NewFlagSet("gnsscfg", pflag.ContinueOnError)
	var (
		cfgPath   = fs.StringP("config", "c", "", "配置文件路径")
		device    = fs.StringP("device", "d", "", "串口设备路径或tcp://host:port")
		baud      = fs.IntP("baud", "b", 0, "串口波特率")
		save      = fs.BoolP("save", "s", false, "交换成功后写入接收机非易失存储")
		overrides = fs.String("overrides", "", "YAML字段覆盖文件路径")
		logLevel  = fs.String("log-level", "", "日志级别 (debug/info/warn/error)")
		logFormat = fs.String("log-format", "", "日志格式 (console/json)")
	)
	fs.Usage = func() { usage(fs) }

	// 1) 命令行与配置
	if err := fs.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return exitOK
		}
		return exitUsage
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return exitUsage
	}

	cfg, err := cfgpkg.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gnsscfg: %v\n", err)
		return exitUsage
	}
	if fs.Changed("device") {
		cfg.Device.Path = *device
	}
	if fs.Changed("baud") {
		cfg.Device.Baud = *baud
	}
	if fs.Changed("log-level") {
		cfg.Logging.Level = *logLevel
	}
	if fs.Changed("log-format") {
		cfg.Logging.Format = *logFormat
	}

	// 2) 初始化日志
	logger, err := logging.InitLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gnsscfg: %v\n", err)
		return exitUsage
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)
	log := logger.With(zap.String("run_id", runID()))

	// 3) 档位与字段覆盖
	profile, err := ubx.LookupProfile(fs.Arg(0))
	if err != nil {
		log.Error("Unknown profile", zap.String("profile", fs.Arg(0)), zap.Error(err))
		fmt.Fprintf(os.Stderr, "profiles: %v\n", ubx.Profiles())
		return exitUsage
	}

	merged := map[string]int64{}
	if *overrides != "" {
		fromFile, err := ubx.LoadOverrideFile(*overrides)
		if err != nil {
			log.Error("Override file rejected", zap.String("path", *overrides), zap.Error(err))
			return exitUsage
		}
		for name, value := range fromFile {
			merged[name] = value
		}
	}
	for _, arg := range fs.Args()[1:] {
		name, value, err := ubx.ParseOverride(arg)
		if err != nil {
			log.Error("Override rejected", zap.String("arg", arg), zap.Error(err))
			return exitUsage
		}
		merged[name] = value // 命令行优先于文件
	}

	if profile.IsPoll() {
		if len(merged) > 0 {
			log.Error("Poll profile does not accept field overrides")
			return exitUsage
		}
	} else if len(merged) > 0 {
		if profile, err = profile.ApplyAll(merged); err != nil {
			log.Error("Override rejected", zap.Error(err))
			return exitUsage
		}
	}

	// 4) 打开通道
	ch, err := channel.Open(cfg.Device.Path, channel.Config{
		Baud:        cfg.Device.Baud,
		ReadTimeout: cfg.Device.ReadTimeout,
		DialTimeout: cfg.Device.DialTimeout,
	})
	if err != nil {
		log.Error("Channel open failed", zap.String("device", cfg.Device.Path), zap.Error(err))
		return exitUsage
	}
	defer func() { _ = ch.Close() }()
	log.Info("Channel opened",
		zap.String("device", cfg.Device.Path),
		zap.Int("baud", cfg.Device.Baud),
	)

	// 5) 执行交换
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ex := exchange.New(ch, exchange.Config{
		MaxAttempts:  cfg.Exchange.MaxAttempts,
		ReadBudget:   cfg.Exchange.ReadBudget,
		FrameTimeout: cfg.Exchange.FrameTimeout,
		SendRate:     cfg.Exchange.SendRate,
		SendBurst:    cfg.Exchange.SendBurst,
	}, log)

	if profile.IsPoll() {
		frame, err := ex.Poll(ctx)
		if err != nil {
			log.Error("Poll failed", zap.Error(err))
			return exitExchange
		}
		renderReply(os.Stdout, log, frame)
	} else {
		if err := ex.Set(ctx, profile); err != nil {
			log.Error("Set failed", zap.String("profile", profile.Name), zap.Error(err))
			return exitExchange
		}
		log.Info("Profile configured", zap.String("profile", profile.Name))
	}

	// 保存仅在前一步交换成功后进行
	if *save {
		if err := ex.Save(ctx); err != nil {
			log.Error("Save failed", zap.Error(err))
			return exitExchange
		}
		log.Info("Configuration saved to non-volatile storage")
	}

	log.Debug("Exchange statistics", zap.Any("stats", ex.Stats()))
	return exitOK
}

// renderReply 把回读的配置帧输出到stdout
// 能解码按字段表逐行打印，不能解码（载荷长度异常）退化为十六进制原样输出。
func renderReply(w io.Writer, log *zap.Logger, frame ubx.Frame) {
	settings, err := ubx.DecodeNav5(frame.Payload)
	if err != nil {
		log.Warn("Reply payload not decodable", zap.Error(err))
		fmt.Fprintf(w, "raw payload: %s\n", hex.EncodeToString(frame.Payload))
		return
	}
	for _, f := range settings {
		if f.Name == "dynModel" {
			fmt.Fprintf(w, "%-18s %d (%s)\n", f.Name, f.Value, ubx.DynModelName(f.Value))
			continue
		}
		fmt.Fprintf(w, "%-18s %d\n", f.Name, f.Value)
	}
}

// runID 本次运行的短标识，便于在共享日志文件中区分多次调用
// 优先使用环境变量GNSSCFG_RUN_ID，否则生成短UUID
func runID() string {
	if id := os.Getenv("GNSSCFG_RUN_ID"); id != "" {
		return id
	}
	return uuid.New().String()[:8]
}

func usage(fs *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, "Usage: gnsscfg [flags] <profile> [field=value ...]\n\n")
	fmt.Fprintf(os.Stderr, "Profiles: %v\n\nFlags:\n", ubx.Profiles())
	fs.PrintDefaults()
}
