// Package main 是应用程序的入口点。
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kb-chatbot-go/internal/config"
	"kb-chatbot-go/internal/handler"
	"kb-chatbot-go/internal/knowledge"
	"kb-chatbot-go/internal/metrics"
	"kb-chatbot-go/internal/repository"
	"kb-chatbot-go/internal/service"
	"kb-chatbot-go/pkg/database"
	"kb-chatbot-go/pkg/log"
	"kb-chatbot-go/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func main() {
	configPath := flag.String("config", "./configs/config.yaml", "配置文件路径")
	flag.Parse()

	// 1. 初始化配置
	config.Init(*configPath)
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	// 3. 指标
	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		rec := metrics.NewPromRecorder()
		metrics.SetRecorder(rec)
		metricsHandler = rec.Handler()
		log.Infof("Prometheus 指标已启用: %s", cfg.Metrics.Path)
	}

	rootCtx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()

	// 4. 加载知识库，来源缺失或缺列时直接退出
	source := cfg.KnowledgeBase.Source
	resolver := knowledge.NewResolver(cfg.MinIO)
	kbCache := knowledge.NewCache(resolver)
	kb, err := kbCache.Get(rootCtx, source)
	if err != nil {
		log.Fatal(fmt.Sprintf("知识库 '%s' 加载失败", source), err)
	}
	log.Infof("知识库加载完成: %d 条, 主题: %s", kb.Len(), kb.Topics())

	if cfg.KnowledgeBase.Watch {
		watcher, err := knowledge.NewWatcher(kbCache, resolver, source)
		if err != nil {
			log.Warnf("无法监听知识库来源，已跳过: %v", err)
		} else if err := watcher.Start(rootCtx); err != nil {
			log.Warnf("启动知识库监听失败: %v", err)
			_ = watcher.Stop()
		} else {
			defer watcher.Stop()
		}
	}

	// 5. 初始化会话存储
	ttl := time.Duration(cfg.Session.TTLHours) * time.Hour
	var sessionRepo repository.SessionRepository
	switch cfg.Session.Store {
	case config.SessionStoreRedis:
		rdb, err := database.NewRedis(rootCtx, cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
		if err != nil {
			log.Fatal("Redis 初始化失败", err)
		}
		defer rdb.Close()
		sessionRepo = repository.NewRedisSessionRepository(rdb, ttl)
	default:
		sessionRepo = repository.NewMemorySessionRepository(ttl)
	}

	// 6. 初始化 Service (依赖注入)
	secret := cfg.JWT.Secret
	if secret == "" {
		secret = uuid.NewString()
		log.Warnf("未配置 jwt.secret，使用随机密钥，重启后已签发的 token 将失效")
	}
	jwtManager := token.NewJWTManager(secret, cfg.JWT.ExpireHours)
	if cfg.Admin.Token == "" {
		log.Warnf("未配置 admin.token，知识库重新加载接口已关闭")
	}
	chatService := service.NewChatService(cfg.Chat.Fallback)
	sessionService, err := service.NewSessionService(sessionRepo, kbCache, chatService, service.SessionOptions{
		Source:           source,
		DefaultThreshold: cfg.Chat.DefaultThreshold,
		Greeting:         cfg.Chat.Greeting,
		ResetClearsName:  cfg.Chat.ResetClearsName,
	})
	if err != nil {
		log.Fatal("会话服务初始化失败", err)
	}

	// 7. 设置 Gin 模式并注册路由
	gin.SetMode(cfg.Server.Mode)
	deps := handler.RouterDeps{
		Sessions:   sessionService,
		Cache:      kbCache,
		Source:     source,
		JWTManager: jwtManager,
		AdminToken: cfg.Admin.Token,
	}
	if metricsHandler != nil {
		deps.MetricsPath = cfg.Metrics.Path
		deps.Metrics = metricsHandler
	}
	r := handler.NewRouter(deps)

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	// 设置一个5秒的超时上下文
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}
	log.Info("服务已优雅关闭")
}
