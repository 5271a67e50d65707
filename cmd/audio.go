package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

var audioFallback string

var audioCmd = &cobra.Command{
	Use:   "audio <url>",
	Short: "按来源 URL 获取音频文件",
	Long:  `下载来源 URL 对应的音频；失败且指定了 --fallback 时改用曲目 ID 查找。`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		svc, closeFn := newService(cfg)
		defer closeFn()

		path, err := svc.ResolveAudioBySource(context.Background(), args[0], audioFallback)
		if err != nil {
			log.Fatalf("获取音频失败: %v", err)
		}
		fmt.Println(path)
	},
}

func init() {
	audioCmd.Flags().StringVarP(&audioFallback, "fallback", "f", "", "来源失败时使用的曲目 ID")
	rootCmd.AddCommand(audioCmd)
}
