package twin

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"ciet/analysis"
	"ciet/catalog"
	"ciet/config"
	"ciet/network"
	"ciet/network/debug"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// 服务参数
var (
	ShutdownTimeout = 5 * time.Second // 关闭等待
	ChartLimit      = 600             // 图表保留记录数
)

// 求解触发方式
const (
	triggerPoll   = "poll"
	triggerDemand = "demand"
)

// Host 数字孪生服务
// 网络本身非并发安全，所有求解经 mu 串行执行。
type Host struct {
	ID       string
	Vars     *Variables
	Metrics  *Metrics
	Chart    *debug.Charts
	Logger   *slog.Logger
	Listen   string
	Interval time.Duration
	Fitted   map[string][]string // 各分支拟合元件，用于误差估计

	mu       sync.Mutex
	net      *network.Network
	limiter  *rate.Limiter
	gatherer prometheus.Gatherer
}

// NewHost 创建服务，reg 为空时使用独立注册表
func NewHost(net *network.Network, cfg *config.Config, logger *slog.Logger, reg *prometheus.Registry) *Host {
	if logger == nil {
		logger = slog.Default()
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	cfg.Apply(net)
	host := &Host{
		ID:       uuid.NewString(),
		Vars:     NewVariables(net.Names(), cfg.Input()),
		Metrics:  NewMetrics(reg),
		Chart:    &debug.Charts{Record: debug.Record{Limit: ChartLimit, Logger: logger}},
		Logger:   logger,
		Listen:   cfg.Host.Listen,
		Interval: cfg.Host.Interval,
		Fitted:   catalog.Fitted,
		net:      net,
		limiter:  rate.NewLimiter(rate.Limit(cfg.Host.SolveRate), cfg.Host.SolveBurst),
		gatherer: reg,
	}
	host.Logger = logger.With("host_id", host.ID)
	net.SetDebugger(host.Chart)
	return host
}

// Apply 配置重载，更新输入与求解参数
func (host *Host) Apply(cfg *config.Config) error {
	if err := host.Vars.SetInput(cfg.Input()); err != nil {
		return err
	}
	host.mu.Lock()
	cfg.Apply(host.net)
	host.mu.Unlock()
	host.limiter.SetLimit(rate.Limit(cfg.Host.SolveRate))
	host.limiter.SetBurst(cfg.Host.SolveBurst)
	host.Logger.Info("配置已应用", "pump_pressure_pa", cfg.PumpPressure, "temperature", cfg.Temperature)
	return nil
}

// Step 以当前输入求解一次并发布结果
func (host *Host) Step(ctx context.Context) (network.Result, error) {
	_, res, err := host.step(ctx, triggerPoll)
	return res, err
}

func (host *Host) step(ctx context.Context, trigger string) (string, network.Result, error) {
	in := host.Vars.Input()
	runID := uuid.NewString()
	host.mu.Lock()
	res, err := host.net.SolveContext(ctx, in)
	var dev analysis.Uncertainty
	if err == nil {
		dev = host.uncertainty(res, in)
	}
	host.mu.Unlock()
	host.Vars.Publish(runID, res, dev, err)

	host.Metrics.SolveDuration.Observe(res.Elapsed.Seconds())
	host.Metrics.PumpPressure.Set(in.PumpPressure)
	if err != nil {
		host.Metrics.Solves.WithLabelValues(trigger, "error").Inc()
		host.Logger.Warn("求解失败", "run_id", runID, "pump_pressure_pa", in.PumpPressure, "err", err)
		return runID, res, err
	}
	host.Metrics.Solves.WithLabelValues(trigger, "ok").Inc()
	host.Metrics.Pressure.Set(res.Pressure)
	host.Metrics.Uncertainty.WithLabelValues("manometer").Set(dev.Manometer)
	host.Metrics.Uncertainty.WithLabelValues("flowmeter").Set(dev.Flowmeter)
	host.Metrics.Uncertainty.WithLabelValues("fldk").Set(dev.FLDK)
	host.Metrics.Uncertainty.WithLabelValues("total").Set(dev.Total)
	attrs := []any{"run_id", runID, "pump_pressure_pa", in.PumpPressure, "pressure_pa", res.Pressure, "elapsed", res.Elapsed}
	for i, name := range res.Names {
		host.Metrics.Flow.WithLabelValues(name).Set(res.Flows[i])
		attrs = append(attrs, "flow_"+name, res.Flows[i])
	}
	host.Logger.Debug("求解完成", attrs...)
	return runID, res, nil
}

// uncertainty 以泵分支流量估计回路压降误差，调用方持有 mu
// 估计失败时只记录日志，压力计误差照常发布。
func (host *Host) uncertainty(res network.Result, in network.Input) analysis.Uncertainty {
	pumpBranch, ok := host.net.PumpBranch()
	if !ok {
		return analysis.Uncertainty{Manometer: analysis.ManometerReadingError, Total: analysis.ManometerReadingError}
	}
	dev, err := analysis.LoopUncertainty(host.net, res.Flow(pumpBranch.Name), in.PumpPressure, in.Temperature, host.Fitted)
	if err != nil {
		host.Logger.Warn("误差估计失败", "err", err)
	}
	return dev
}

// poll 周期求解，失败只记录不退出
func (host *Host) poll(ctx context.Context) error {
	ticker := time.NewTicker(host.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			host.Step(ctx)
		}
	}
}

// Run 启动周期求解与 HTTP 服务，ctx 取消后优雅退出
func (host *Host) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              host.Listen,
		Handler:           host.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		host.Logger.Info("服务启动", "listen", host.Listen, "interval", host.Interval)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdown)
	})
	g.Go(func() error { return host.poll(ctx) })
	err := g.Wait()
	host.Logger.Info("服务停止", "err", err)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Handler HTTP 路由
func (host *Host) Handler() http.Handler {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.GET("/healthz", host.healthz)
	engine.GET("/variables", host.variables)
	engine.PUT("/variables/pump_pressure", host.setPumpPressure)
	engine.PUT("/variables/temperature", host.setTemperature)
	engine.PUT("/variables/valves/:branch", host.setValve)
	engine.POST("/solve", host.solve)
	engine.GET("/chart", gin.WrapF(host.Chart.Handler))
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(host.gatherer, promhttp.HandlerOpts{})))
	return engine
}
