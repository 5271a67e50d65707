package cmd

import (
	"context"
	"fmt"
	"log"

	"EternalJukebox/core/alert"

	"github.com/spf13/cobra"
)

var redisPublish bool

var redisCmd = &cobra.Command{
	Use:   "redis",
	Short: "Redis 告警通道测试",
	Long:  `测试 Redis 连接是否成功，可选地向告警频道发布一条测试消息。`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("开始测试Redis连接...")

		cfg := loadConfig()
		fmt.Printf("Redis配置: %s, DB: %d, 告警频道: %q\n", cfg.RedisAddr(), cfg.RedisDB, cfg.AlertRedisChannel)

		r := alert.NewRedisNotifier(cfg)
		defer func() {
			if err := r.Close(); err != nil {
				log.Printf("关闭Redis连接时发生错误: %v", err)
			}
		}()

		if err := r.Ping(context.Background()); err != nil {
			log.Fatalf("无法连接到Redis: %v", err)
		}
		fmt.Println("Redis连接成功！")

		if !redisPublish {
			return
		}
		if cfg.AlertRedisChannel == "" {
			log.Fatal("未配置 ALERT_REDIS_CHANNEL，无法发布测试消息")
		}
		if err := r.Publish(context.Background(), "[EternalJukebox] Test", "redis alert channel is working"); err != nil {
			log.Fatalf("发布测试消息失败: %v", err)
		}
		fmt.Println("测试消息已发布。")
	},
}

func init() {
	redisCmd.Flags().BoolVarP(&redisPublish, "publish", "p", false, "向告警频道发布测试消息")
	rootCmd.AddCommand(redisCmd)
}
