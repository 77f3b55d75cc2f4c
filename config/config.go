// Package config YAML 配置加载、校验与热更新
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"ciet/maths"
	"ciet/network"
	"ciet/types"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ErrConfig 配置错误
var ErrConfig = errors.New("配置错误")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Config 运行配置
type Config struct {
	Temperature  float64         `yaml:"temperature" validate:"gte=20,lte=180"`
	PumpPressure float64         `yaml:"pump_pressure" validate:"gte=-50000,lte=50000"`
	Valves       map[string]bool `yaml:"valves"` // 按分支名称，未列出的分支视为开启
	Netlist      string          `yaml:"netlist,omitempty"` // 网表文件，为空时使用内置 CIET 回路
	Solver       Solver          `yaml:"solver"`
	Host         Host            `yaml:"host"`
	Output       Output          `yaml:"output"`
}

// Solver 求解参数
type Solver struct {
	Tolerance       float64 `yaml:"tolerance" validate:"gt=0,lt=1"`
	MaxIterations   int     `yaml:"max_iterations" validate:"gte=1,lte=1000"`
	FlowBracket     float64 `yaml:"flow_bracket" validate:"gt=0"`
	PressureBracket float64 `yaml:"pressure_bracket" validate:"gt=0"`
}

// Host 数字孪生服务参数
type Host struct {
	Listen     string        `yaml:"listen" validate:"required,hostname_port"`
	Interval   time.Duration `yaml:"interval" validate:"gte=1ms"`
	SolveRate  float64       `yaml:"solve_rate" validate:"gt=0"`  // 每秒按需求解次数
	SolveBurst int           `yaml:"solve_burst" validate:"gte=1"` // 突发上限
}

// Output 图表输出路径
type Output struct {
	HTML string `yaml:"html,omitempty"`
	PNG  string `yaml:"png,omitempty"`
}

// Default 默认配置
func Default() *Config {
	return &Config{
		Temperature: types.DefaultTemperature,
		Valves:      make(map[string]bool),
		Solver: Solver{
			Tolerance:       types.Tolerance,
			MaxIterations:   types.MaxIterations,
			FlowBracket:     types.FlowBracket,
			PressureBracket: types.PressureBracket,
		},
		Host: Host{
			Listen:     "127.0.0.1:4840",
			Interval:   100 * time.Millisecond,
			SolveRate:  20,
			SolveBurst: 5,
		},
	}
}

// Parse 解析 YAML，未给出的字段取默认值
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load 读取配置文件
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate 校验字段范围
func (cfg *Config) Validate() error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("%w: %w", ErrConfig, err)
	}
	return nil
}

// Input 转换为求解输入
func (cfg *Config) Input() network.Input {
	return network.Input{
		PumpPressure: cfg.PumpPressure,
		Temperature:  cfg.Temperature,
		Valves:       network.ValvesFromBool(cfg.Valves),
	}
}

// Apply 将求解参数写入网络
func (cfg *Config) Apply(net *network.Network) {
	net.SetConvergency(maths.Convergency{Eps: cfg.Solver.Tolerance, MaxIter: cfg.Solver.MaxIterations})
	net.SetFlowBracket(cfg.Solver.FlowBracket)
	net.PressureBracket = cfg.Solver.PressureBracket
}

// Marshal 输出 YAML
func (cfg *Config) Marshal() ([]byte, error) { return yaml.Marshal(cfg) }

// Debounce 文件变化合并间隔
var Debounce = 200 * time.Millisecond

// Watch 监视配置文件，变化且校验通过后回调
// 阻塞直到 ctx 取消。监视所在目录以兼容编辑器替换文件。
func Watch(ctx context.Context, path string, logger *slog.Logger, onChange func(*Config)) error {
	if logger == nil {
		logger = slog.Default()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return err
	}
	logger.Info("监视配置文件", "path", abs)

	var timer *time.Timer
	reload := func() {
		cfg, err := Load(abs)
		if err != nil {
			logger.Warn("配置重载失败", "path", abs, "err", err)
			return
		}
		logger.Info("配置已重载", "path", abs)
		onChange(cfg)
	}
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(Debounce, reload)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("配置监视错误", "err", err)
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return ctx.Err()
		}
	}
}
