package network

import (
	"fmt"
	"strconv"
)

// ValveState 分支阀门状态
type ValveState uint8

// 阀门状态定义，零值为开启
const (
	Open   ValveState = iota // 开启，正常参与求解
	Closed                   // 关闭，流量恒为零
)

func (state ValveState) String() string {
	switch state {
	case Open:
		return "open"
	case Closed:
		return "closed"
	}
	return "unknown(" + strconv.Itoa(int(state)) + ")"
}

// MarshalText 以名称序列化
func (state ValveState) MarshalText() ([]byte, error) { return []byte(state.String()), nil }

// UnmarshalText 按名称解析
func (state *ValveState) UnmarshalText(text []byte) error {
	switch string(text) {
	case "open":
		*state = Open
	case "closed":
		*state = Closed
	default:
		return fmt.Errorf("未知阀门状态 %q", text)
	}
	return nil
}

// Valves 各分支阀门状态，未列出的分支视为开启
type Valves map[string]ValveState

// ValvesFromBool 由开启标志创建
func ValvesFromBool(open map[string]bool) Valves {
	valves := make(Valves, len(open))
	for name, is := range open {
		valves[name] = Closed
		if is {
			valves[name] = Open
		}
	}
	return valves
}

// IsOpen 分支是否开启
func (valves Valves) IsOpen(name string) bool { return valves[name] == Open }

// Set 设置分支状态
func (valves Valves) Set(name string, open bool) {
	if open {
		valves[name] = Open
	} else {
		valves[name] = Closed
	}
}

// checkValveBlocks 止回阀判定
// 候选压力不低于分支零流量压力时，自然解为反向流动或零流量，流量强制为零。
func checkValveBlocks(branch *Branch, pressure, zeroFlow float64) bool {
	return branch.CheckValve && pressure >= zeroFlow
}
