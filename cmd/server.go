package cmd

import (
	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "启动 Eternal Jukebox 服务器",
	Long:  `启动 HTTP 服务器，提供分析数据、音频文件与曲目搜索接口`,
	Run: func(cmd *cobra.Command, args []string) {
		runServer()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
