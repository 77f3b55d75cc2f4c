// Package debug 求解过程记录与可视化
package debug

import (
	"ciet/network"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Entry 单次求解记录
type Entry struct {
	RunID        string             `json:"run_id"`        // 运行标识
	PumpPressure float64            `json:"pump_pressure"` // 泵压力 Pa
	Temperature  float64            `json:"temperature"`   // 流体温度 °C
	Valves       map[string]bool    `json:"valves"`        // 阀门开启状态
	Pressure     float64            `json:"pressure"`      // 共享压力 Pa
	Flows        map[string]float64 `json:"flows"`         // 分支流量 kg/s
	Elapsed      time.Duration      `json:"elapsed"`       // 计算耗时
	Iter         int                `json:"iter"`          // 迭代次数
}

// Record 记录历史状态
type Record struct {
	Names   []string `json:"names"`   // 分支列表
	Entries []Entry  `json:"entries"` // 求解记录
	Errors  []string `json:"errors"`  // 失败记录

	Limit  int          `json:"-"` // 保留的最多记录数，0 为不限
	Logger *slog.Logger `json:"-"`
	mu     sync.Mutex
}

// Init 初始化
func (list *Record) Init(net *network.Network) {
	list.mu.Lock()
	defer list.mu.Unlock()
	list.Names = net.Names()
	list.Entries = list.Entries[:0]
	list.Errors = list.Errors[:0]
}

func (*Record) IsDebug() bool    { return true }
func (*Record) SetDebug(is bool) {}

// Render 格式和输出内容
func (list *Record) Render(w io.Writer) error {
	list.mu.Lock()
	defer list.mu.Unlock()
	return json.NewEncoder(w).Encode(list)
}

// Update 记录数据
func (list *Record) Update(in network.Input, res network.Result) {
	entry := Entry{
		RunID:        uuid.NewString(),
		PumpPressure: in.PumpPressure,
		Temperature:  in.Temperature,
		Valves:       make(map[string]bool, len(res.Names)),
		Pressure:     res.Pressure,
		Flows:        make(map[string]float64, len(res.Names)),
		Elapsed:      res.Elapsed,
		Iter:         res.Iter,
	}
	for i, name := range res.Names {
		entry.Valves[name] = in.Valves.IsOpen(name)
		entry.Flows[name] = res.Flows[i]
	}
	list.mu.Lock()
	list.Entries = append(list.Entries, entry)
	if list.Limit > 0 && len(list.Entries) > list.Limit {
		list.Entries = append(list.Entries[:0], list.Entries[len(list.Entries)-list.Limit:]...)
	}
	list.mu.Unlock()
}

// Snapshot 记录拷贝
func (list *Record) Snapshot() []Entry {
	list.mu.Lock()
	defer list.mu.Unlock()
	return append([]Entry(nil), list.Entries...)
}

func (list *Record) Error(err error) {
	list.mu.Lock()
	list.Errors = append(list.Errors, err.Error())
	if list.Limit > 0 && len(list.Errors) > list.Limit {
		list.Errors = append(list.Errors[:0], list.Errors[len(list.Errors)-list.Limit:]...)
	}
	list.mu.Unlock()
	list.logger().Error("求解失败", "err", err)
}

func (list *Record) logger() *slog.Logger {
	if list.Logger != nil {
		return list.Logger
	}
	return slog.Default()
}
