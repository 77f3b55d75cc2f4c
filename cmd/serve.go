package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"ciet/config"
	"ciet/twin"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newServeCmd(opts *options) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "运行数字孪生服务，周期求解并提供 HTTP 接口",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Host.Listen = listen
			}
			net, err := opts.network(cfg)
			if err != nil {
				return err
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			logger := slog.Default()
			host := twin.NewHost(net, cfg, logger, reg)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			group, ctx := errgroup.WithContext(ctx)
			group.Go(func() error { return host.Run(ctx) })
			if opts.config != "" {
				group.Go(func() error {
					err := config.Watch(ctx, opts.config, logger, func(cfg *config.Config) {
						if err := host.Apply(cfg); err != nil {
							logger.Warn("配置应用失败", "err", err)
						}
					})
					if errors.Is(err, context.Canceled) {
						return nil
					}
					return err
				})
			}
			return group.Wait()
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "监听地址，覆盖配置文件")
	return cmd
}
