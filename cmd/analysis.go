package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
)

var analysisSummary bool

var analysisCmd = &cobra.Command{
	Use:   "analysis <trackId>",
	Short: "解析曲目的音乐分析数据",
	Long:  `从缓存或 Spotify 获取曲目的分析数据并写入缓存，默认输出完整 JSON。`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		svc, closeFn := newService(cfg)
		defer closeFn()

		audio, err := svc.ResolveAnalysis(context.Background(), args[0])
		if err != nil {
			log.Fatalf("解析失败: %v", err)
		}

		if analysisSummary {
			a := audio.Analysis
			fmt.Printf("%s - %s\n", audio.Info.Artist, audio.Info.Name)
			fmt.Printf("sections: %d, bars: %d, beats: %d, tatums: %d, segments: %d\n",
				len(a.Sections), len(a.Bars), len(a.Beats), len(a.Tatums), len(a.Segments))
			return
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(audio); err != nil {
			log.Fatalf("输出失败: %v", err)
		}
	},
}

func init() {
	analysisCmd.Flags().BoolVarP(&analysisSummary, "summary", "s", false, "只输出曲目信息与各组片段数量")
	rootCmd.AddCommand(analysisCmd)
}
