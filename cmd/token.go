package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/nsxzhou1114/movie-review-api/internal/config"
	"github.com/nsxzhou1114/movie-review-api/internal/database"
	"github.com/spf13/cobra"
)

var tokenUser string

// tokenCmd 访问令牌管理命令
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "访问令牌管理命令",
	Long:  `签发与吊销访问令牌，用于联调与运维`,
}

// issueTokenCmd 签发令牌命令
// 示例：./movie-review-api token issue --user 7f1c...
var issueTokenCmd = &cobra.Command{
	Use:   "issue",
	Short: "签发访问令牌",
	Long:  `为指定用户签发访问令牌`,
	Run: func(cmd *cobra.Command, args []string) {
		issueToken(tokenUser)
	},
}

// revokeTokenCmd 吊销令牌命令
var revokeTokenCmd = &cobra.Command{
	Use:   "revoke [token]",
	Short: "吊销访问令牌",
	Long:  `将令牌加入黑名单，直到其过期`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		revokeToken(args[0])
	},
}

func init() {
	issueTokenCmd.Flags().StringVarP(&tokenUser, "user", "u", "", "用户ID (UUID)")
	_ = issueTokenCmd.MarkFlagRequired("user")

	tokenCmd.AddCommand(issueTokenCmd)
	tokenCmd.AddCommand(revokeTokenCmd)
	rootCmd.AddCommand(tokenCmd)
}

// issueToken 签发访问令牌
func issueToken(user string) {
	userID, err := uuid.Parse(user)
	if err != nil {
		fmt.Printf("无效的用户ID: %s\n", user)
		os.Exit(1)
	}
	if err := initializeSystem(); err != nil {
		fmt.Printf("系统初始化失败: %v\n", err)
		os.Exit(1)
	}

	tokens := newTokenManager(database.GetRedis(), &config.GetConfig().JWT)
	token, claims, err := tokens.GenerateToken(userID)
	if err != nil {
		fmt.Printf("签发令牌失败: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("令牌: %s\n", token)
	fmt.Printf("令牌ID: %s\n", claims.Id)
	fmt.Printf("过期时间: %s\n", time.Unix(claims.ExpiresAt, 0).Format("2006-01-02 15:04:05"))
}

// revokeToken 吊销访问令牌
func revokeToken(token string) {
	if err := initializeSystem(); err != nil {
		fmt.Printf("系统初始化失败: %v\n", err)
		os.Exit(1)
	}

	tokens := newTokenManager(database.GetRedis(), &config.GetConfig().JWT)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := tokens.RevokeToken(ctx, token); err != nil {
		fmt.Printf("吊销令牌失败: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("令牌已吊销")
}
