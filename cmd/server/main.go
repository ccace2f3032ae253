package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"sync"
	"syscall"

	"github.com/wfunc/slot-payout/internal/api"
	"github.com/wfunc/slot-payout/internal/config"
	"github.com/wfunc/slot-payout/internal/database"
	apperrors "github.com/wfunc/slot-payout/internal/errors"
	"github.com/wfunc/slot-payout/internal/game/slot"
	"github.com/wfunc/slot-payout/internal/logger"
	"github.com/wfunc/slot-payout/internal/paytable"
	"github.com/wfunc/slot-payout/internal/service"
	"github.com/wfunc/slot-payout/internal/websocket"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 版本信息
var (
	Version   = "1.0.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Server 服务器实例
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	engine   *slot.Engine
	db       *gorm.DB
	hub      *websocket.Hub
	services *service.Services
	http     *http.Server
	watcher  *paytable.Watcher

	// 关闭控制
	shutdownCh chan struct{}
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
}

func main() {
	// 命令行参数
	var (
		configPath  = flag.String("config", "", "配置文件路径")
		showVersion = flag.Bool("version", false, "显示版本信息")
		showHelp    = flag.Bool("help", false, "显示帮助信息")
	)

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if *showHelp {
		printHelp()
		os.Exit(0)
	}

	// 加载配置
	if err := config.Init(*configPath); err != nil {
		fmt.Printf("加载配置失败: %v\n", err)
		os.Exit(1)
	}

	cfg := config.Get()

	// 初始化日志系统
	if err := logger.Init(&cfg.Log); err != nil {
		fmt.Printf("初始化日志失败: %v\n", err)
		os.Exit(1)
	}

	printStartInfo(cfg)

	server := NewServer(cfg)

	if err := server.Start(); err != nil {
		logger.Fatal("服务器启动失败", zap.Error(err))
	}

	server.WaitForShutdown()

	if err := server.Shutdown(); err != nil {
		logger.Error("服务器关闭失败", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("服务器已安全关闭")
}

// NewServer 创建服务器实例
func NewServer(cfg *config.Config) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		cfg:        cfg,
		logger:     logger.GetLogger(),
		shutdownCh: make(chan struct{}),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start 启动服务器
func (s *Server) Start() error {
	s.logger.Info("正在启动赔付引擎服务...",
		zap.String("version", Version),
		zap.String("mode", s.cfg.Server.Mode),
	)

	if err := s.initComponents(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrUnknown, "初始化组件失败")
	}

	if err := s.startServices(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrUnknown, "启动服务失败")
	}

	// 监听配置变化
	config.Watch(func(newCfg *config.Config) {
		s.logger.Info("配置已更新，正在重新加载...")
		s.reloadConfig(newCfg)
	})

	s.logger.Info("服务器启动成功",
		zap.String("http", s.http.Addr),
		zap.String("websocket", s.cfg.WebSocket.Path),
		zap.String("paytable", s.engine.Paytable().Name),
	)
	return nil
}

// initComponents 初始化组件
func (s *Server) initComponents() error {
	s.logger.Info("初始化组件...")

	if err := s.initEngine(); err != nil {
		return err
	}

	if s.cfg.Audit.Enabled {
		if err := s.initDatabase(); err != nil {
			return err
		}
	}

	s.hub = websocket.NewHub(websocket.SettingsFromConfig(s.cfg.WebSocket), logger.GetModuleLogger("websocket"))

	s.services = service.NewServices(s.engine, s.db, s.hub, service.ConfigFrom(s.cfg), logger.GetModuleLogger("service"))

	router := api.NewRouter(s.services, s.hub, s.db, s.cfg, logger.GetModuleLogger("api"))
	s.http = &http.Server{
		Addr:         net.JoinHostPort(s.cfg.Server.Host, strconv.Itoa(s.cfg.Server.Port)),
		Handler:      router.Handler(),
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	s.logger.Info("所有组件初始化完成")
	return nil
}

// initEngine 加载赔付表并创建引擎
func (s *Server) initEngine() error {
	pt, err := paytable.Load(s.cfg.Engine.PaytableFile)
	if err != nil {
		return apperrors.Wrapf(err, apperrors.ErrPaytableInvalid, "赔付表 %q", s.cfg.Engine.PaytableFile)
	}

	var rng slot.RandomGenerator = slot.NewCryptoRandomGenerator()
	if s.cfg.Engine.RNG == "seeded" {
		rng = slot.NewSeededRandomGenerator(s.cfg.Engine.Seed)
		s.logger.Warn("使用固定种子随机数，仅用于测试", zap.Uint64("seed", s.cfg.Engine.Seed))
	}

	s.engine = slot.NewEngine(pt,
		slot.WithRandom(rng),
		slot.WithLogger(logger.GetModuleLogger("engine")),
	)
	s.logger.Info("赔付表已加载",
		zap.String("paytable", pt.Name),
		zap.Float64("target_rtp", pt.TargetRTP),
		zap.Float64("expected_rtp", pt.ExpectedRTP()),
	)
	return nil
}

// initDatabase 初始化审计数据库
func (s *Server) initDatabase() error {
	s.logger.Info("初始化数据库...")

	if err := database.Init(&s.cfg.Database); err != nil {
		return apperrors.Wrap(err, apperrors.ErrDatabaseConnect, "初始化数据库连接失败")
	}

	if s.cfg.Database.AutoMigrate {
		s.logger.Info("执行数据库自动迁移...")
		if err := database.AutoMigrate(); err != nil {
			return apperrors.Wrap(err, apperrors.ErrDatabaseConnect, "数据库迁移失败")
		}
	}

	if !database.IsConnected() {
		return apperrors.New(apperrors.ErrDatabaseConnect, "数据库连接检查失败")
	}

	s.db = database.GetDB()
	s.logger.Info("数据库初始化完成")
	return nil
}

// startServices 启动服务
func (s *Server) startServices() error {
	s.logger.Info("启动服务...")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.hub.Run(s.ctx)
	}()

	if s.cfg.Engine.WatchPaytable && s.cfg.Engine.PaytableFile != "" {
		w, err := paytable.NewWatcher(s.cfg.Engine.PaytableFile, s.services.Spin, logger.GetModuleLogger("paytable"))
		if err != nil {
			return err
		}
		if err := w.Start(s.ctx); err != nil {
			return err
		}
		s.watcher = w
	}

	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("监听 %s 失败: %w", s.http.Addr, err)
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP服务异常退出", zap.Error(err))
		}
	}()

	s.logger.Info("所有服务启动完成")
	return nil
}

// WaitForShutdown 等待关闭信号
func (s *Server) WaitForShutdown() {
	sigCh := make(chan os.Signal, 1)

	signal.Notify(sigCh,
		syscall.SIGINT,  // Ctrl+C
		syscall.SIGTERM, // kill命令
		syscall.SIGQUIT, // Ctrl+\
	)

	sig := <-sigCh
	s.logger.Info("收到退出信号", zap.String("signal", sig.String()))

	close(s.shutdownCh)
}

// Shutdown 优雅关闭服务器
func (s *Server) Shutdown() error {
	s.logger.Info("正在优雅关闭服务器...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	// 停止接收新请求
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("HTTP服务关闭失败", zap.Error(err))
	}

	if s.watcher != nil {
		s.watcher.Stop()
	}

	// 取消主上下文，Hub 关闭所有WebSocket连接
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("所有服务已正常关闭")
	case <-shutdownCtx.Done():
		s.logger.Warn("关闭超时，强制退出")
		return apperrors.New(apperrors.ErrTimeout, "关闭超时")
	}

	s.closeComponents()

	if err := logger.Sync(); err != nil {
		fmt.Printf("同步日志失败: %v\n", err)
	}
	return nil
}

// closeComponents 关闭组件
func (s *Server) closeComponents() {
	stats := s.engine.Statistics()
	s.logger.Info("引擎统计",
		zap.Int64("spins", stats.TotalSpins),
		zap.String("total_bet", stats.TotalBet.String()),
		zap.String("total_payout", stats.TotalPayout.String()),
		zap.Float64("rtp", stats.CurrentRTP),
	)

	if s.db != nil {
		if err := database.Close(); err != nil {
			s.logger.Error("关闭数据库失败", zap.Error(err))
		}
	}
}

// reloadConfig 重新加载配置，只有日志级别可以热更新
func (s *Server) reloadConfig(newCfg *config.Config) {
	if newCfg.Log.Level != s.cfg.Log.Level {
		logger.SetLevel(newCfg.Log.Level)
		s.logger.Info("日志级别已更新", zap.String("level", logger.Level()))
	}
	if newCfg.Engine.PaytableFile != s.cfg.Engine.PaytableFile {
		s.logger.Warn("赔付表路径变更需要重启生效",
			zap.String("current", s.cfg.Engine.PaytableFile),
			zap.String("new", newCfg.Engine.PaytableFile))
	}
	s.cfg = newCfg
}

// printVersion 打印版本信息
func printVersion() {
	fmt.Printf("老虎机赔付引擎\n")
	fmt.Printf("版本: %s\n", Version)
	fmt.Printf("构建时间: %s\n", BuildTime)
	fmt.Printf("Git提交: %s\n", GitCommit)
	fmt.Printf("Go版本: %s\n", runtime.Version())
	fmt.Printf("操作系统: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

// printHelp 打印帮助信息
func printHelp() {
	fmt.Println("老虎机赔付引擎")
	fmt.Println()
	fmt.Println("用法:")
	fmt.Println("  slot-payout-server [选项]")
	fmt.Println()
	fmt.Println("选项:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("环境变量:")
	fmt.Println("  SLOT_PAYOUT_SERVER_PORT       HTTP端口")
	fmt.Println("  SLOT_PAYOUT_ENGINE_RNG        随机数来源 (crypto/seeded)")
	fmt.Println("  SLOT_PAYOUT_AUDIT_ENABLED     是否写审计记录")
	fmt.Println()
	fmt.Println("示例:")
	fmt.Println("  slot-payout-server -config=/path/to/config.yaml")
	fmt.Println("  slot-payout-server -version")
}

// printStartInfo 打印启动信息
func printStartInfo(cfg *config.Config) {
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Println("  slot-payout  老虎机赔付引擎")
	fmt.Printf("  版本: %s | 模式: %s | PID: %d\n", Version, cfg.Server.Mode, os.Getpid())
	fmt.Printf("  赔付表: %s\n", paytableLabel(cfg.Engine.PaytableFile))
	fmt.Println("═══════════════════════════════════════════════════════════════")
}

func paytableLabel(path string) string {
	if path == "" {
		return "内置 classic_fruit"
	}
	return path
}
