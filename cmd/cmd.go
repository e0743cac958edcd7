package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nsxzhou1114/movie-review-api/internal/config"
	"github.com/nsxzhou1114/movie-review-api/internal/controller"
	"github.com/nsxzhou1114/movie-review-api/internal/logger"
	"github.com/nsxzhou1114/movie-review-api/internal/router"
	"github.com/nsxzhou1114/movie-review-api/internal/task"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var configPath string

// rootCmd 根命令
var rootCmd = &cobra.Command{
	Use:   "movie-review-api",
	Short: "影评评论服务",
	Long:  `电影社区影评下的楼中楼评论服务，支持发表、回复、修改、删除与点赞`,
}

// serveCmd 启动服务命令
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动HTTP服务",
	Long:  `启动影评评论的HTTP服务器`,
	Run: func(cmd *cobra.Command, args []string) {
		startServer()
	},
}

func init() {
	// 添加全局标志
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "./config", "配置文件路径")

	// 添加子命令
	rootCmd.AddCommand(serveCmd)
}

// Execute 执行根命令
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// startServer 启动HTTP服务
func startServer() {
	if err := initializeSystem(); err != nil {
		fmt.Printf("系统初始化失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg := config.GetConfig()
	log := logger.GetSugaredLogger()

	initCtx, cancelInit := context.WithTimeout(context.Background(), time.Minute)
	app, err := buildComponents(initCtx)
	cancelInit()
	if err != nil {
		logger.Fatal("组件初始化失败", zap.Error(err))
	}

	// 定时重建影评布隆过滤器
	scheduler := task.NewScheduler(log)
	if err := scheduler.AddBloomRebuild(cfg.Cache.BloomRebuildSpec, app.anchors, app.reviews); err != nil {
		logger.Fatal("定时任务初始化失败", zap.Error(err))
	}
	scheduler.Start()

	// 配置热更新只调整日志级别
	config.Watch(func(c *config.Config) {
		logger.SetLevel(c.Log.Level)
		logger.Info("配置已重新加载", zap.String("log_level", c.Log.Level))
	})

	// 设置Gin模式
	gin.SetMode(cfg.App.Mode)

	commentApi := controller.NewReviewCommentApi(app.comments, app.votes,
		cfg.Comment.DefaultPageSize, cfg.Comment.MaxPageSize, log)
	r := initRouter(commentApi, app)

	// 启动HTTP服务
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.App.Port),
		Handler: r,
	}

	// 优雅关闭
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP服务启动失败", zap.Error(err))
		}
	}()

	logger.Info("服务已启动", zap.String("addr", srv.Addr))

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("关闭服务...")

	// 设置关闭超时
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	scheduler.Stop(ctx)
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("服务关闭异常", zap.Error(err))
	}
	if err := app.redis.Close(); err != nil {
		logger.Warn("关闭redis连接失败", zap.Error(err))
	}

	logger.Info("服务已关闭")
}

// 初始化路由
func initRouter(commentApi *controller.ReviewCommentApi, app *components) *gin.Engine {
	r := gin.New()

	// 使用中间件
	r.Use(gin.Recovery())
	r.Use(logger.GinLogger())

	// 初始化API路由
	router.Setup(r, commentApi, app.tokens)

	return r
}
