package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"bomberfox/internal/config"
	"bomberfox/internal/server"
	"bomberfox/pkg/core"
	"bomberfox/pkg/level"
	"bomberfox/pkg/logger"
)

func main() {
	if err := config.LoadEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := config.DefaultServer()

	root := &cobra.Command{
		Use:           "bomberfox-server",
		Short:         "Bomberfox 联机服务器",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cfg)
		},
	}

	f := root.Flags()
	f.StringVar(&cfg.Addr, "addr", cfg.Addr, "监听地址")
	f.StringVar(&cfg.Proto, "proto", cfg.Proto, "传输协议 tcp|kcp")
	f.IntVar(&cfg.MaxPlayers, "max-players", cfg.MaxPlayers, "每个房间的最大玩家数")
	f.Int64Var(&cfg.Seed, "seed", cfg.Seed, "关卡随机种子")
	f.StringVar(&cfg.LayoutFile, "layout", cfg.LayoutFile, "固定关卡模板文件")
	f.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "日志级别")
	f.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "日志格式 text|json")

	root.AddCommand(newGenLevelCmd())
	return root
}

func run(cfg config.Server) error {
	log := logger.Init(cfg.LogLevel, cfg.LogFormat)

	gameServer, err := server.NewGameServer(cfg, afero.NewOsFs(), log)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() { errCh <- gameServer.Start() }()

	select {
	case <-gameServer.Ready():
	case err := <-errCh:
		return fmt.Errorf("服务器启动失败: %w", err)
	}
	log.WithFields(logrus.Fields{
		"addr":        gameServer.Addr().String(),
		"proto":       cfg.Proto,
		"max_players": cfg.MaxPlayers,
		"tps":         server.ServerTPS,
	}).Info("Bomberfox 服务器已启动，按 Ctrl+C 停止")

	// 等待中断信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigChan:
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	gameServer.Shutdown()
	return nil
}

// newGenLevelCmd 生成随机关卡并保存为文本模板
func newGenLevelCmd() *cobra.Command {
	var (
		seed int64
		lvl  int
	)
	cmd := &cobra.Command{
		Use:   "gen-level <file>",
		Short: "生成关卡模板",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			layout, err := level.NewBuilder(core.DefaultBounds, seed).Build(lvl)
			if err != nil {
				return err
			}
			if err := level.Save(afero.NewOsFs(), args[0], layout); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "已写入 %s\n%s", args[0], level.Format(layout))
			return nil
		},
	}
	cmd.Flags().Int64Var(&seed, "seed", 1, "随机种子")
	cmd.Flags().IntVar(&lvl, "level", 1, "关卡编号，决定敌人数量")
	return cmd
}
