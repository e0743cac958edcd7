package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/nsxzhou1114/movie-review-api/internal/model"
	"github.com/spf13/cobra"
)

// statsCmd 统计命令
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "统计信息命令",
	Long:  `显示影评评论的统计信息`,
}

// reviewStatsCmd 单个影评的评论统计
// 示例：./movie-review-api stats review 42
var reviewStatsCmd = &cobra.Command{
	Use:   "review [reviewId]",
	Short: "影评评论统计",
	Long:  `显示指定影评下的父评论数、回复数与点赞最多的评论`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		showReviewStats(args[0])
	},
}

func init() {
	statsCmd.AddCommand(reviewStatsCmd)
	rootCmd.AddCommand(statsCmd)
}

// showReviewStats 显示影评评论统计
func showReviewStats(arg string) {
	reviewID, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		fmt.Printf("无效的影评ID: %s\n", arg)
		os.Exit(1)
	}

	if err := initializeSystem(); err != nil {
		fmt.Printf("系统初始化失败: %v\n", err)
		os.Exit(1)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	app, err := buildComponents(ctx)
	if err != nil {
		fmt.Printf("组件初始化失败: %v\n", err)
		os.Exit(1)
	}

	parents, err := app.comments.CountParents(ctx, reviewID)
	if err != nil {
		fmt.Printf("统计父评论失败: %v\n", err)
		os.Exit(1)
	}

	var total int64
	if err := app.db.WithContext(ctx).Model(&model.ReviewComment{}).
		Where("review_id = ?", reviewID).Count(&total).Error; err != nil {
		fmt.Printf("统计评论总数失败: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("=== 影评 %d 评论统计 ===\n", reviewID)
	fmt.Printf("父评论数: %d\n", parents)
	fmt.Printf("回复数: %d\n", total-parents)

	top, err := app.comments.GetParents(ctx, reviewID, model.SortLike, 0, 5)
	if err != nil {
		fmt.Printf("获取热门评论失败: %v\n", err)
		return
	}
	fmt.Println("点赞最多的评论:")
	for _, c := range top {
		fmt.Printf("  - [%d] 点赞 %d: %s\n", c.CommentID, c.Likes, c.Content)
	}
}
