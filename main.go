package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	appConfig "github.com/Xushengqwer/thread_service/config"
	"github.com/Xushengqwer/thread_service/constant"
	"github.com/Xushengqwer/thread_service/controller"
	"github.com/Xushengqwer/thread_service/dependencies"
	"github.com/Xushengqwer/thread_service/mq/consumer"
	"github.com/Xushengqwer/thread_service/mq/producer"
	"github.com/Xushengqwer/thread_service/repo/mysql"
	redisrepo "github.com/Xushengqwer/thread_service/repo/redis"
	"github.com/Xushengqwer/thread_service/router"
	"github.com/Xushengqwer/thread_service/service"
	"github.com/Xushengqwer/thread_service/tasks"

	sharedCore "github.com/Xushengqwer/go-common/core"
	sharedTracing "github.com/Xushengqwer/go-common/core/tracing"

	"go.uber.org/zap"
)

// @title           Thread Service API
// @version         1.0
// @description     公民论坛的帖子服务：提供帖子发布、十分钟窗口编辑、墓碑化删除、信息流与会话串查询等功能。
// @termsOfService  http://swagger.io/terms/

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8083

// @schemes http https
func main() {
	// --- 配置和基础设置 ---
	var configFile string
	flag.StringVar(&configFile, "config", "config/config.development.yaml", "Path to configuration file")
	flag.Parse()

	// 1. 加载配置
	var cfg appConfig.ThreadConfig
	if err := sharedCore.LoadConfig(configFile, &cfg); err != nil {
		log.Fatalf("FATAL: 加载配置失败 (%s): %v", configFile, err)
	}

	// 打印最终生效的配置以供调试
	configBytes, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		log.Fatalf("无法序列化配置以进行打印: %v", err)
	}
	log.Printf("✅ 配置加载成功！最终生效的配置如下:\n%s\n", string(configBytes))

	// 2. 初始化 Logger
	logger, loggerErr := sharedCore.NewZapLogger(cfg.ZapConfig)
	if loggerErr != nil {
		log.Fatalf("FATAL: 初始化 ZapLogger 失败: %v", loggerErr)
	}
	defer func() {
		logger.Info("正在同步日志...")
		if err := logger.Logger().Sync(); err != nil {
			log.Printf("WARN: ZapLogger Sync 失败: %v\n", err)
		}
	}()
	logger.Info("Logger 初始化成功")

	// 3. 初始化 TracerProvider
	var tracerShutdown func(context.Context) error
	if cfg.TracerConfig.Enabled {
		var err error
		tracerShutdown, err = sharedTracing.InitTracerProvider(
			constant.ServiceName,
			constant.ServiceVersion,
			cfg.TracerConfig,
		)
		if err != nil {
			logger.Fatal("初始化 TracerProvider 失败", zap.Error(err))
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			logger.Info("正在关闭 TracerProvider...")
			if err := tracerShutdown(ctx); err != nil {
				logger.Error("关闭 TracerProvider 失败", zap.Error(err))
			} else {
				logger.Info("TracerProvider 已成功关闭")
			}
		}()
		logger.Info("分布式追踪已初始化")
	} else {
		logger.Info("分布式追踪已禁用")
		tracerShutdown = func(ctx context.Context) error { return nil }
	}

	// --- 4. 初始化核心依赖 ---
	// 4.1 数据库 (MySQL)
	db, dbErr := dependencies.InitMySQL(&cfg, logger)
	if dbErr != nil {
		logger.Fatal("初始化 MySQL 数据库失败", zap.Error(dbErr))
	}
	logger.Info("MySQL 数据库连接成功")

	// 4.2 Redis
	rdb, redisErr := dependencies.InitRedis(&cfg.RedisConfig, logger)
	if redisErr != nil {
		logger.Fatal("初始化 Redis 失败", zap.Error(redisErr))
	}
	logger.Info("Redis 连接成功")

	// 4.3 COS 客户端
	cosClient, cosErr := dependencies.InitCOS(&cfg.COSConfig, logger)
	if cosErr != nil {
		logger.Fatal("初始化 COS 客户端失败", zap.Error(cosErr))
	}
	logger.Info("COS 客户端初始化成功")

	// 4.4 Kafka 生产者
	// 帖子的审核流转依赖事件投递，brokers 为必填配置。
	if len(cfg.KafkaConfig.Brokers) == 0 {
		logger.Fatal("未配置 Kafka brokers (kafkaConfig.brokers)")
	}
	kafkaProducer := producer.NewKafkaProducer(cfg.KafkaConfig, logger)
	defer func() {
		if err := kafkaProducer.Close(); err != nil {
			logger.Error("关闭 Kafka 生产者失败", zap.Error(err))
		}
	}()
	logger.Info("Kafka 生产者已初始化")

	// --- 5. 初始化数据仓库层 (Repositories) ---
	txManager := mysql.NewTransactionManager(db)
	postRepo := mysql.NewPostRepository(db, logger)
	postImageRepo := mysql.NewPostImageRepository(db, logger)
	postAdminRepo := mysql.NewPostAdminRepository(db, logger)
	replyCountBatchRepo := mysql.NewReplyCountBatchRepository(db, logger, cfg.ReplyCountSync)
	logger.Debug("MySQL Repositories 初始化完成")

	feedCache := redisrepo.NewFeedCache(rdb, logger, cfg.FeedCacheConfig)
	logger.Debug("Redis Repositories 初始化完成")

	// --- 6. 初始化服务层 (Services) ---
	postService := service.NewPostService(txManager, postRepo, postImageRepo, feedCache, cosClient, kafkaProducer, logger)
	threadService := service.NewThreadQueryService(postRepo, postImageRepo, feedCache, logger)
	postAdminService := service.NewPostAdminService(postAdminRepo, postImageRepo, feedCache, logger)
	logger.Debug("Services 初始化完成")

	// --- 7. 初始化控制器层 (Controllers) ---
	postController := controller.NewPostController(postService)
	threadController := controller.NewThreadController(threadService)
	postAdminController := controller.NewPostAdminController(postAdminService)
	logger.Debug("Controllers 初始化完成")

	// --- 8. 初始化 Kafka 消费者 ---
	var consumers []*consumer.Consumer
	var consumerWg sync.WaitGroup
	consumerCtx, consumerCancel := context.WithCancel(context.Background())

	groupID := cfg.KafkaConfig.ConsumerGroupID
	if groupID == "" {
		logger.Warn("Kafka ConsumerGroupID 未在配置中设置，将使用默认值 'thread_service_group'")
		groupID = "thread_service_group"
	}

	// 8.1 审核通过消费者
	approvedTopic := cfg.KafkaConfig.Topics.PostAuditApproved
	if approvedTopic != "" {
		approvedHandler := consumer.NewApprovedAuditHandler(logger, postAdminService)
		approvedConsumer, err := consumer.NewConsumer(&cfg.KafkaConfig, groupID, approvedTopic, approvedHandler, logger)
		if err != nil {
			logger.Fatal("初始化 Approved Kafka 消费者失败", zap.Error(err))
		}
		consumers = append(consumers, approvedConsumer)
		logger.Info("Approved Kafka 消费者已准备就绪", zap.String("topic", approvedTopic))
	} else {
		logger.Warn("PostAuditApproved topic 未配置，跳过 Approved 消费者创建")
	}

	// 8.2 审核拒绝消费者
	rejectedTopic := cfg.KafkaConfig.Topics.PostAuditRejected
	if rejectedTopic != "" {
		rejectedHandler := consumer.NewRejectedAuditHandler(logger, postAdminService)
		rejectedConsumer, err := consumer.NewConsumer(&cfg.KafkaConfig, groupID, rejectedTopic, rejectedHandler, logger)
		if err != nil {
			logger.Fatal("初始化 Rejected Kafka 消费者失败", zap.Error(err))
		}
		consumers = append(consumers, rejectedConsumer)
		logger.Info("Rejected Kafka 消费者已准备就绪", zap.String("topic", rejectedTopic))
	} else {
		logger.Warn("PostAuditRejected topic 未配置，跳过 Rejected 消费者创建")
	}

	// 8.3 启动所有已初始化的消费者
	if len(consumers) > 0 {
		logger.Info(fmt.Sprintf("准备启动 %d 个 Kafka 消费者...", len(consumers)))
		for _, c := range consumers {
			consumerWg.Add(1)
			go func(cons *consumer.Consumer) {
				defer consumerWg.Done()
				cons.Start(consumerCtx)
			}(c)
		}
	} else {
		logger.Warn("没有配置任何有效的 Kafka 消费者。")
	}

	// --- 9. 初始化定时任务 ---
	replyCountSyncTask := tasks.NewReplyCountSyncTask(replyCountBatchRepo, logger)
	logger.Info("后台定时任务已初始化并启动")

	// --- 10. 设置 Gin 路由器 ---
	ginRouter := router.SetupRouter(logger, &cfg, postController, threadController, postAdminController)
	logger.Info("Gin 路由器已设置")

	// --- 11. 启动 HTTP 服务器 ---
	serverAddr := fmt.Sprintf(":%s", cfg.ServerConfig.Port)
	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: ginRouter,
	}

	go func() {
		logger.Info("HTTP 服务器开始监听", zap.String("address", serverAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP 服务器启动失败", zap.Error(err))
		}
		logger.Info("HTTP 服务器已停止监听")
	}()

	// --- 12. 实现优雅关停 ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	receivedSignal := <-quit
	logger.Info("收到关停信号，开始优雅退出...", zap.String("signal", receivedSignal.String()))

	shutdownCtx, shutdownCancelFunc := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancelFunc()

	// a. 停止 HTTP 服务器 (允许处理完当前请求)
	logger.Info("正在关闭 HTTP 服务器...")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("关闭 HTTP 服务器失败", zap.Error(err))
	} else {
		logger.Info("HTTP 服务器已成功关闭")
	}

	// b. 关闭 Kafka 消费者
	logger.Info("正在发送停止信号给 Kafka 消费者...")
	consumerCancel()
	logger.Info("等待 Kafka 消费者停止...")
	consumerWg.Wait()
	for _, c := range consumers {
		if err := c.Close(); err != nil {
			logger.Error("关闭某个 Kafka 消费者时出错", zap.Error(err))
		}
	}
	logger.Info("所有 Kafka 消费者已停止。")

	// c. 停止定时任务调度器 (等待正在执行的任务结束)
	logger.Info("正在停止定时任务...")
	taskStopCtx := replyCountSyncTask.Stop()
	select {
	case <-taskStopCtx.Done():
		logger.Info("回复计数对账任务已停止")
	case <-shutdownCtx.Done():
		logger.Error("等待定时任务停止超时", zap.Error(shutdownCtx.Err()))
	}

	logger.Info("服务已成功关闭")
}
