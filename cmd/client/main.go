package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"bomberfox/internal/client"
	"bomberfox/internal/config"
	"bomberfox/pkg/ai"
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
	cfg := config.DefaultClient()

	root := &cobra.Command{
		Use:          "bomberfox",
		Short:        "Bomberfox 客户端",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			log := logger.Init(cfg.LogLevel, cfg.LogFormat)
			if cfg.Local {
				return runLocal(cfg, log)
			}
			return runNetwork(cmd.Context(), cfg, log)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&cfg.Addr, "addr", cfg.Addr, "服务器地址")
	pf.StringVar(&cfg.Proto, "proto", cfg.Proto, "传输协议 tcp|kcp")
	pf.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "日志级别")
	pf.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "日志格式 text|json")

	f := root.Flags()
	f.BoolVar(&cfg.Local, "local", cfg.Local, "单机模式")
	f.StringVar(&cfg.PlayerName, "name", cfg.PlayerName, "玩家名")
	f.StringVar(&cfg.RoomID, "room", cfg.RoomID, "房间 ID，为空进入默认房间")
	f.Int64Var(&cfg.Seed, "seed", cfg.Seed, "单机模式的关卡种子")
	f.StringVar(&cfg.LayoutFile, "layout", cfg.LayoutFile, "单机模式的固定关卡模板")
	f.IntVar(&cfg.Bots, "bots", cfg.Bots, "单机模式的机器人数")
	f.IntVar(&cfg.Scale, "scale", cfg.Scale, "窗口缩放倍数")

	root.AddCommand(newRoomsCmd(&cfg))
	return root
}

func runLocal(cfg config.Client, log logrus.FieldLogger) error {
	var layout *level.Layout
	if cfg.LayoutFile != "" {
		l, err := level.Load(afero.NewOsFs(), cfg.LayoutFile)
		if err != nil {
			return err
		}
		layout = l
	}

	simCfg := core.DefaultConfig()
	simCfg.Seed = cfg.Seed
	game, err := client.NewLocalGame(simCfg, layout, log, client.WithBots(cfg.Bots, ai.ConfigNormal))
	if err != nil {
		return err
	}

	w, h := game.Layout(0, 0)
	setupWindow(w, h, cfg.Scale, "Bomberfox - 单机")
	return ebiten.RunGame(game)
}

func runNetwork(ctx context.Context, cfg config.Client, log logrus.FieldLogger) error {
	nc := client.NewNetworkClient(cfg.Proto, cfg.Addr, log)
	defer nc.Close()

	resp, err := nc.Connect(ctx, cfg.PlayerName, cfg.RoomID)
	if err != nil {
		return err
	}

	game := client.NewNetworkGame(nc, log)
	w, h := game.Layout(0, 0)
	setupWindow(w, h, cfg.Scale, fmt.Sprintf("Bomberfox - %s [P%d]", resp.RoomID, resp.PlayerID))
	return ebiten.RunGame(game)
}

func setupWindow(w, h, scale int, title string) {
	ebiten.SetWindowSize(w*scale, h*scale)
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeDisabled)
	ebiten.SetTPS(core.FPS)
}

// newRoomsCmd 查询服务器上的房间
func newRoomsCmd(cfg *config.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "rooms",
		Short: "列出服务器上的房间",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()

			rooms, err := client.ListRooms(ctx, cfg.Proto, cfg.Addr)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-12s %-8s %-6s %s\n", "ROOM", "PLAYERS", "LEVEL", "STATE")
			for _, r := range rooms {
				state := "waiting"
				if r.Running {
					state = "running"
				}
				fmt.Fprintf(out, "%-12s %d/%-6d %-6d %s\n", r.ID, r.Players, r.Max, r.Level, state)
			}
			return nil
		},
	}
}
