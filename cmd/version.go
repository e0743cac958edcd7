package cmd

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"
)

var (
	// 这些变量在编译时通过 -ldflags 设置
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

var versionShort bool

// versionCmd 版本信息命令
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	Long:  `显示影评评论服务的版本与构建信息`,
	Run: func(cmd *cobra.Command, args []string) {
		printVersion(cmd.OutOrStdout(), versionShort)
	},
}

func init() {
	versionCmd.Flags().BoolVarP(&versionShort, "short", "s", false, "只显示版本号")
	rootCmd.AddCommand(versionCmd)
}

// printVersion 输出版本信息
func printVersion(w io.Writer, short bool) {
	if short {
		fmt.Fprintln(w, Version)
		return
	}
	fmt.Fprintf(w, "影评评论服务 %s\n", Version)
	fmt.Fprintf(w, "Git提交: %s\n", GitCommit)
	fmt.Fprintf(w, "构建时间: %s\n", BuildTime)
	fmt.Fprintf(w, "Go版本: %s\n", runtime.Version())
	fmt.Fprintf(w, "平台: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}
