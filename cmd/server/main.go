package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/palemoky/truco-paulista/internal/config"
	"github.com/palemoky/truco-paulista/internal/logger"
	"github.com/palemoky/truco-paulista/internal/server"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	flag.Parse()

	// 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Printf("加载配置文件失败，使用默认配置: %v", err)
		cfg = config.Default()
	}

	if err := logger.Init(cfg.Log.File); err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer logger.Close()
	if path := logger.GetLogPath(); path != "" {
		fmt.Printf("📝 日志写入 %s\n", path)
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("创建服务器失败: %v", err)
	}

	// 优雅关闭：第一次信号等待对局结束，第二次信号立即退出
	quit := make(chan os.Signal, 2)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-quit
		log.Println("正在关闭服务器，等待进行中的对局结束...")
		go func() {
			<-quit
			log.Println("再次收到信号，立即关闭")
			srv.Shutdown()
			os.Exit(1)
		}()
		srv.GracefulShutdown(cfg.Game.ShutdownTimeoutDuration())
	}()

	log.Println("🃏 Truco Paulista 服务器启动中...")
	if err := srv.Start(); err != nil {
		log.Fatalf("服务器启动失败: %v", err)
	}
	// Start 在 Shutdown 时立即返回，等待优雅关闭收尾
	<-stopped
}
