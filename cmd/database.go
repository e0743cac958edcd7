package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/nsxzhou1114/movie-review-api/internal/config"
	"github.com/nsxzhou1114/movie-review-api/internal/database"
	"github.com/nsxzhou1114/movie-review-api/internal/repository"
	"github.com/spf13/cobra"
)

// databaseCmd 数据库管理命令
var databaseCmd = &cobra.Command{
	Use:   "db",
	Short: "数据库管理命令",
	Long:  `数据库管理相关的命令，包括初始化表、重建布隆过滤器、查看连接状态`,
}

// initTablesCmd 初始化数据库表命令
// 示例：./movie-review-api db init-tables
var initTablesCmd = &cobra.Command{
	Use:   "init-tables",
	Short: "初始化数据库表",
	Long:  `创建或迁移影评与评论表`,
	Run: func(cmd *cobra.Command, args []string) {
		initializeTables()
	},
}

// rebuildBloomCmd 重建布隆过滤器命令
// 示例：./movie-review-api db rebuild-bloom
var rebuildBloomCmd = &cobra.Command{
	Use:   "rebuild-bloom",
	Short: "重建影评布隆过滤器",
	Long:  `读取全部影评ID，重建布隆过滤器并保存到Redis`,
	Run: func(cmd *cobra.Command, args []string) {
		rebuildBloom()
	},
}

// dbStatusCmd 数据库状态命令
var dbStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "数据库状态",
	Long:  `显示MySQL与Redis连接状态`,
	Run: func(cmd *cobra.Command, args []string) {
		showDatabaseStatus()
	},
}

func init() {
	// 添加数据库相关子命令
	databaseCmd.AddCommand(initTablesCmd)
	databaseCmd.AddCommand(rebuildBloomCmd)
	databaseCmd.AddCommand(dbStatusCmd)

	// 将数据库命令添加到根命令
	rootCmd.AddCommand(databaseCmd)
}

// initializeTables 初始化数据库表
func initializeTables() {
	if err := initializeSystem(); err != nil {
		fmt.Printf("系统初始化失败: %v\n", err)
		os.Exit(1)
	}

	if _, err := openDB(); err != nil {
		fmt.Printf("%v\n", err)
		os.Exit(1)
	}
	fmt.Println("数据库表初始化完成")
}

// rebuildBloom 重建影评布隆过滤器
func rebuildBloom() {
	if err := initializeSystem(); err != nil {
		fmt.Printf("系统初始化失败: %v\n", err)
		os.Exit(1)
	}

	db, err := openDB()
	if err != nil {
		fmt.Printf("%v\n", err)
		os.Exit(1)
	}
	reviews := repository.NewGormReviewAnchor(db)
	anchors := newAnchorCache(reviews, database.GetRedis(), &config.GetConfig().Cache)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	n, err := anchors.Warm(ctx, reviews)
	if err != nil {
		fmt.Printf("重建布隆过滤器失败: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("成功写入 %d 个影评ID\n", n)
}

// showDatabaseStatus 显示数据库状态
func showDatabaseStatus() {
	if err := initializeSystem(); err != nil {
		fmt.Printf("系统初始化失败: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("=== 数据库状态 ===")

	// MySQL状态
	db := database.GetDB()
	sqlDB, err := db.DB()
	if err != nil {
		fmt.Printf("MySQL: 连接失败 - %v\n", err)
	} else if err := sqlDB.Ping(); err != nil {
		fmt.Printf("MySQL: 连接失败 - %v\n", err)
	} else {
		stats := sqlDB.Stats()
		fmt.Printf("MySQL: 连接正常\n")
		fmt.Printf("  - 最大连接数: %d\n", stats.MaxOpenConnections)
		fmt.Printf("  - 当前连接数: %d\n", stats.OpenConnections)
		fmt.Printf("  - 空闲连接数: %d\n", stats.Idle)
		fmt.Printf("  - 使用中连接数: %d\n", stats.InUse)
	}

	// Redis状态
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	rdb := database.GetRedis()
	if err := rdb.Ping(ctx).Err(); err != nil {
		fmt.Printf("Redis: 连接失败 - %v\n", err)
	} else {
		stats := rdb.PoolStats()
		fmt.Printf("Redis: 连接正常\n")
		fmt.Printf("  - 总连接数: %d\n", stats.TotalConns)
		fmt.Printf("  - 空闲连接数: %d\n", stats.IdleConns)
	}
}
