package cmd

import (
	"context"
	"fmt"

	"EternalJukebox/storage"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var storageReclaim bool

var storageCmd = &cobra.Command{
	Use:   "storage",
	Short: "缓存存储管理",
	Long:  `查看三个缓存目录的占用情况，使用 --reclaim 立即执行一次清理。`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		svc, closeFn := newService(cfg)
		defer closeFn()

		printUsage := func(u storage.Usage) {
			for _, ns := range storage.Namespaces() {
				fmt.Printf("  %-16s %10s  %s\n", ns, humanize.IBytes(uint64(u.ByNamespace[ns])), svc.Layout().Dir(ns))
			}
			fmt.Printf("  %-16s %10s  (%d 个文件)\n", "total", humanize.IBytes(uint64(u.Bytes)), u.Files)
		}

		fmt.Printf("阈值: size=%s buffer=%s emergency=%s\n",
			humanize.IBytes(uint64(cfg.StorageSize)),
			humanize.IBytes(uint64(cfg.StorageBuffer)),
			humanize.IBytes(uint64(cfg.StorageEmergency)))
		fmt.Println("\n当前占用:")
		printUsage(svc.StorageUsage())

		if storageReclaim {
			svc.ReclaimStorage(context.Background())
			fmt.Println("\n清理后占用:")
			printUsage(svc.StorageUsage())
		}
	},
}

func init() {
	storageCmd.Flags().BoolVarP(&storageReclaim, "reclaim", "r", false, "立即执行一次清理")
	rootCmd.AddCommand(storageCmd)
}
