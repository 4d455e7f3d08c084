package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"support_chat_server/internal/config"
	dao "support_chat_server/internal/dao/mysql"
	myredis "support_chat_server/internal/dao/redis"
	"support_chat_server/internal/handler"
	"support_chat_server/internal/https_server"
	"support_chat_server/internal/infrastructure/logger"
	"support_chat_server/internal/service"
	"support_chat_server/internal/service/chat"
	"support_chat_server/internal/service/ratelimit"
	"support_chat_server/pkg/util/jwt"
	"support_chat_server/pkg/util/snowflake"

	"go.uber.org/zap"
)

func main() {
	// 1. 加载配置
	conf := config.GetConfig()

	// 2. 初始化日志
	if err := logger.Init(&conf.LogConfig, "dev"); err != nil {
		log.Fatalf("init logger failed: %v", err)
	}
	zap.L().Info("日志初始化成功")

	// 3. 初始化参数校验器翻译
	if err := handler.InitTrans("zh"); err != nil {
		zap.L().Fatal("校验器翻译初始化失败", zap.Error(err))
	}

	// 4. 初始化数据库
	dao.Init()
	zap.L().Info("数据库初始化成功")

	// 5. 初始化 Redis
	myredis.Init()
	zap.L().Info("Redis 初始化成功")

	// 6. 初始化 JWT 和雪花算法
	jwt.Init(conf.JWTConfig.Secret, conf.JWTConfig.AccessTokenExpiry)
	snowflake.Init()

	// 7. 初始化投递层 ChatServer
	// channel 模式单机内存投递，kafka 模式支持多实例部署
	chatServer := chat.NewChatServer(conf.ChatConfig.MessageMode)
	if conf.ChatConfig.MessageMode == "kafka" {
		chatServer.InitKafka()
	}
	zap.L().Info("ChatServer 初始化成功", zap.String("mode", conf.ChatConfig.MessageMode))

	// 8. 初始化限流器
	// Redis 可用时用共享计数器，多实例部署下限流口径一致
	cache := myredis.GetCacheService()
	limiter := ratelimit.NewLimiter(ratelimit.NewRedisStore(cache))
	policies := ratelimit.PoliciesFromConfig(&conf.ChatConfig)

	// 9. 初始化 Service 层（依赖注入）
	service.InitServices(service.Deps{
		Repos:               dao.Repos,
		Cache:               cache,
		Limiter:             limiter,
		Policies:            policies,
		Publisher:           chatServer,
		OpenConversationCap: conf.ChatConfig.OpenConversationCap,
	})
	zap.L().Info("Service 层初始化成功")

	// 10. 初始化 WebSocket 网关
	// 会话 Service 同时承担用户身份解析（chat.IdentityProvider）
	gateway := chat.NewGateway(
		chatServer,
		service.Svc.Conversation,
		dao.Repos.Conversation,
		dao.Repos.Staff,
		limiter,
		policies.Typing,
	)

	// 11. 初始化 Handler 层和 HTTP 服务器
	handlers := handler.NewHandlers(service.Svc, gateway)
	engine := https_server.Init(handlers)
	zap.L().Info("HTTP 服务器初始化成功")

	// 12. 启动投递循环和 HTTP 服务
	chatServer.Start()

	go func() {
		addr := fmt.Sprintf("%s:%d", conf.MainConfig.Host, conf.MainConfig.Port)
		if err := engine.Run(addr); err != nil {
			zap.L().Fatal("server running fault", zap.Error(err))
		}
	}()
	zap.L().Info("服务启动完成", zap.String("host", conf.MainConfig.Host), zap.Int("port", conf.MainConfig.Port))

	// 设置信号监听
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// 等待信号
	<-quit

	zap.L().Info("关闭服务器...")

	chatServer.Close()

	zap.L().Info("服务器已关闭")
}
