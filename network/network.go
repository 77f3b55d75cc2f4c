package network

import (
	"ciet/element"
	"ciet/fluid"
	"ciet/maths"
	"ciet/types"
	"errors"
	"fmt"
)

// 网络配置错误定义
var (
	ErrEmpty     = errors.New("网络或分支为空")
	ErrDuplicate = errors.New("分支名称重复")
	ErrPump      = errors.New("泵定义错误")
	ErrReference = errors.New("参考分支必须恰有一个")
	ErrValve     = errors.New("阀门对应分支不存在")
)

// BranchConfig 分支配置
type BranchConfig struct {
	Name       string           `yaml:"name" json:"name"`
	CheckValve bool             `yaml:"check_valve,omitempty" json:"check_valve,omitempty"` // 止回阀，禁止反向流动
	Reference  bool             `yaml:"reference,omitempty" json:"reference,omitempty"`     // 压力搜索区间参考分支
	Components []element.Config `yaml:"components" json:"components"`                       // 自上而下排列
}

// Network 并联网络
// 元件按值存放于 Components，分支与泵通过索引引用。
// 非并发安全，并发调用方需自行加锁或各自创建网络。
type Network struct {
	Components []element.Component // 元件
	Branches   []*Branch           // 分支，顺序固定
	Pump       int                 // 泵元件索引，-1 表示无泵
	Reference  int                 // 参考分支索引
	Fluid      fluid.Properties    // 流体物性
	Debug      Debug               // 调试记录

	Convergency     maths.Convergency // 收敛参数
	PressureBracket float64           // 压力搜索半宽 Pa
}

// New 创建网络，所有元件参数在此处检查
func New(props fluid.Properties, branches ...BranchConfig) (*Network, error) {
	if len(branches) == 0 {
		return nil, fmt.Errorf("无分支: %w", ErrEmpty)
	}
	net := &Network{
		Pump:            -1,
		Fluid:           props,
		Debug:           &debug{},
		Convergency:     maths.NewConvergency(),
		PressureBracket: types.PressureBracket,
	}
	names := make(map[string]bool, len(branches))
	references := 0
	spans := make([][2]int, len(branches))
	for i, config := range branches {
		if config.Name == "" || names[config.Name] {
			return nil, fmt.Errorf("分支 %q: %w", config.Name, ErrDuplicate)
		}
		names[config.Name] = true
		if len(config.Components) == 0 {
			return nil, fmt.Errorf("分支 %s 无元件: %w", config.Name, ErrEmpty)
		}
		if config.Reference {
			net.Reference = i
			references++
		}
		spans[i][0] = len(net.Components)
		for _, ec := range config.Components {
			ele, err := element.New(ec, props)
			if err != nil {
				return nil, fmt.Errorf("分支 %s: %w", config.Name, err)
			}
			if ec.Pump {
				if net.Pump >= 0 {
					return nil, fmt.Errorf("%s 与 %s: %w", net.Components[net.Pump].Name, ec.Name, ErrPump)
				}
				net.Pump = len(net.Components)
			}
			net.Components = append(net.Components, ele)
		}
		spans[i][1] = len(net.Components)
	}
	if references != 1 {
		return nil, fmt.Errorf("标记为参考的分支有 %d 个: %w", references, ErrReference)
	}
	// 元件数组不再增长后再建立分支视图
	for i, config := range branches {
		index := make([]int, 0, spans[i][1]-spans[i][0])
		for id := spans[i][0]; id < spans[i][1]; id++ {
			index = append(index, id)
		}
		net.Branches = append(net.Branches, &Branch{
			Name:        config.Name,
			CheckValve:  config.CheckValve,
			Index:       index,
			Convergency: net.Convergency,
			FlowBracket: types.FlowBracket,
			arena:       net.Components,
		})
	}
	return net, nil
}

// Branch 按名称查找分支
func (net *Network) Branch(name string) (*Branch, bool) {
	for _, branch := range net.Branches {
		if branch.Name == name {
			return branch, true
		}
	}
	return nil, false
}

// CheckValves 检查阀门表中的分支名称
func (net *Network) CheckValves(valves Valves) error {
	for name := range valves {
		if _, ok := net.Branch(name); !ok {
			return fmt.Errorf("%q: %w", name, ErrValve)
		}
	}
	return nil
}

// Names 分支名称列表
func (net *Network) Names() []string {
	names := make([]string, len(net.Branches))
	for i, branch := range net.Branches {
		names[i] = branch.Name
	}
	return names
}

// SetConvergency 设置网络与分支的收敛参数
func (net *Network) SetConvergency(conv maths.Convergency) {
	net.Convergency = conv
	for _, branch := range net.Branches {
		branch.Convergency = conv
	}
}

// SetFlowBracket 设置分支流量搜索半宽
func (net *Network) SetFlowBracket(bracket float64) {
	for _, branch := range net.Branches {
		branch.FlowBracket = bracket
	}
}

// Reset 清空所有压力源与缓存
func (net *Network) Reset() {
	for i := range net.Components {
		net.Components[i].Reset()
	}
}

// SetPumpPressure 设置泵压力，下次计算时生效
func (net *Network) SetPumpPressure(pressure float64) error {
	if net.Pump < 0 {
		if pressure != 0 {
			return fmt.Errorf("网络无泵: %w", ErrPump)
		}
		return nil
	}
	net.Components[net.Pump].Source = pressure
	return nil
}

// PumpBranch 泵所在分支
func (net *Network) PumpBranch() (*Branch, bool) {
	for _, branch := range net.Branches {
		for _, id := range branch.Index {
			if id == net.Pump {
				return branch, true
			}
		}
	}
	return nil, false
}
