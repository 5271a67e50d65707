package cmd

import (
	"context"
	"fmt"
	"log"
	"strings"

	"EternalJukebox/core/jukebox"

	"github.com/spf13/cobra"
)

var searchLimit int

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "在 Spotify 搜索曲目",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		svc, closeFn := newService(cfg)
		defer closeFn()

		query := strings.Join(args, " ")
		fmt.Printf("正在搜索: %s\n", query)
		infos, err := svc.Search(context.Background(), query, searchLimit)
		if err != nil {
			log.Fatalf("搜索失败: %v", err)
		}
		if len(infos) == 0 {
			fmt.Println("未找到相关曲目")
			return
		}

		fmt.Printf("\n找到 %d 首曲目:\n", len(infos))
		for i, info := range infos {
			fmt.Printf("%d. %s - %s [%s]\n", i+1, info.Name, info.Artist, info.ID)
		}
	},
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "l", jukebox.DefaultSearchLimit, "返回结果数量")
	rootCmd.AddCommand(searchCmd)
}
