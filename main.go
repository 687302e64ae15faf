package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	easy "github.com/t-tomalak/logrus-easy-formatter"
	"github.com/tsinghua-fib-lab/transit-routing/feed"
	"github.com/tsinghua-fib-lab/transit-routing/planner"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

var (
	// 配置信息
	configPath  = flag.String("config", "", "yaml config file, flags set on the command line take precedence")
	feedPathStr = flag.String("feed", "", "gtfs feed [format: {fspath} (directory or .zip) or {db}]")
	mongoURI    = flag.String("mongo_uri", "", "mongo db uri (default $MONGO_URI)")
	listen      = flag.String("listen", "localhost:52101", "http listening address")
	logLevel    = flag.String("log-level", "info", "log level [debug, info, warn, error, fatal, panic]")
	workers     = flag.Int("workers", 0, "graph building workers (0 means GOMAXPROCS)")
	timeout     = flag.Int("timeout", 0, "timeout of one query in seconds (0 means no limit)")

	// 性能测试
	benchmark = flag.Bool("benchmark", false, "benchmark mode")
	pprofAddr = flag.String("pprof", "localhost:52102", "pprof and metrics listening address")

	LOG_LEVELS = map[string]logrus.Level{
		"debug": logrus.DebugLevel,
		"info":  logrus.InfoLevel,
		"warn":  logrus.WarnLevel,
		"error": logrus.ErrorLevel,
		"fatal": logrus.FatalLevel,
		"panic": logrus.PanicLevel,
	}
)

// parseDeparture 接受HH:MM或HH:MM:SS
func parseDeparture(s string) (planner.Clock, error) {
	if strings.Count(s, ":") == 1 {
		s += ":00"
	}
	return feed.ParseClock(s)
}

func main() {
	logrus.SetFormatter(&easy.Formatter{
		TimestampFormat: "2006-01-02 15:04:05.0000",
		LogFormat:       "[%module%] [%time%] [%lvl%] %msg%\n",
	})
	flag.Parse()
	cfg, err := loadConfig(flag.CommandLine, *configPath, Config{
		Feed:     *feedPathStr,
		MongoURI: *mongoURI,
		Listen:   *listen,
		Pprof:    *pprofAddr,
		LogLevel: *logLevel,
		Workers:  *workers,
		Timeout:  *timeout,
	})
	if err != nil {
		logrus.Fatalf("invalid config: %v", err)
	}
	if level, ok := LOG_LEVELS[cfg.LogLevel]; ok {
		logrus.SetLevel(level)
	} else {
		logrus.Fatalf("invalid log level: %s", cfg.LogLevel)
	}

	feedPath, err := NewPath(cfg.Feed)
	if err != nil {
		logrus.Fatalf("invalid feed path: %s", err)
	}
	schedule, err := feedPath.Load(context.Background(), cfg.MongoURI)
	if err != nil {
		logrus.Fatalf("failed to load feed from %s: %v", feedPath, err)
	}
	metrics := NewMetrics()
	// 启动规划服务
	server, err := NewPlanningServer(
		schedule,
		feedPath, cfg.MongoURI,
		cfg.Workers, time.Duration(cfg.Timeout)*time.Second,
		metrics,
	)
	if err != nil {
		logrus.Fatalf("invalid feed: %v", err)
	}

	if cfg.Pprof != "" {
		// 启动pprof与metrics
		startHTTPDebugger(cfg.Pprof, metrics)
	}

	if *benchmark {
		// 性能测试
		runBenchmark(server)
		return
	}

	// 使用HTTP/2 w.o. TLS
	s := &http.Server{
		Addr:    cfg.Listen,
		Handler: h2c.NewHandler(server.Handler(), &http2.Server{}),
	}

	// 优雅退出
	// 创建监听退出chan
	signalCh := make(chan os.Signal, 1)
	//监听指定信号 ctrl+c kill
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)
	// 收到SIGHUP时重新加载数据
	reloadCh := make(chan os.Signal, 1)
	signal.Notify(reloadCh, syscall.SIGHUP)
	go func() {
		for range reloadCh {
			if err := server.Reload(context.Background()); err != nil {
				log.Errorf("reload failed: %v", err)
			}
		}
	}()
	go func() {
		<-signalCh
		log.Info("stopping...")
		go func() {
			<-signalCh
			os.Exit(1) // 强制结束
		}()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Shutdown(ctx); err != nil {
			log.Warnf("shutdown: %v", err)
		}
	}()

	log.Infof("server listening at %v", s.Addr)
	if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("failed to serve: %v", err)
	}
	time.Sleep(1 * time.Second) // 延迟等待"优雅退出"
	log.Info("planner closes")
}
