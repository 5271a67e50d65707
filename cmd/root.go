package cmd

import (
	"fmt"
	"log"
	"os"

	"EternalJukebox/config"
	"EternalJukebox/core/jukebox"
	"EternalJukebox/logger"
	"EternalJukebox/server"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "jukebox",
	Short: "Eternal Jukebox resolution service.",
	Run: func(cmd *cobra.Command, args []string) {
		log.Println("Starting Eternal Jukebox server...")
		runServer()
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig 加载配置并初始化日志
func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogFile,
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	})
	return cfg
}

// newService 为一次性命令构建服务，调用方负责关闭
func newService(cfg *config.Config) (*jukebox.Service, func() error) {
	svc, closeFn, err := jukebox.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("初始化服务失败: %v", err)
	}
	return svc, closeFn
}

func runServer() {
	cfg := loadConfig()
	defer logger.Sync()

	if err := server.Start(cfg); err != nil {
		logger.Fatal("服务异常退出", logger.ErrorField(err))
	}
}
