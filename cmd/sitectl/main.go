package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "sitectl",
		Short:         "Offline schedule tools and operator commands for the site dashboard",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// 离线命令：只读取 JSON 文件，不连接任何服务
	root.AddCommand(newGanttCmd(), newEarnedCmd(), newTemplateCmd())

	// 运维命令：读取 configs/ 并连接数据库/MQ
	root.AddCommand(newMigrateCmd(), newOutboxCmd())
	return root
}
