package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

var songCmd = &cobra.Command{
	Use:   "song <trackId>",
	Short: "按曲目 ID 获取音频文件",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		svc, closeFn := newService(cfg)
		defer closeFn()

		path, err := svc.ResolveAudioByTrackID(context.Background(), args[0])
		if err != nil {
			log.Fatalf("获取音频失败: %v", err)
		}
		fmt.Println(path)
	},
}

func init() {
	rootCmd.AddCommand(songCmd)
}
