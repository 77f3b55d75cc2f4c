package types

// 分支名称定义
const (
	BranchCTAH   = "ctah"   // 冷却器分支
	BranchHeater = "heater" // 加热器分支
	BranchDHX    = "dhx"    // 换热器分支(止回阀)
)

// 默认参数常量定义
var (
	Tolerance          = 1e-9    // 收敛容差
	MaxIterations      = 30      // 最大迭代次数
	FlowBracket        = 1.0     // 分支流量搜索区间 kg/s
	PressureBracket    = 50000.0 // 回路压力搜索区间 Pa
	DefaultTemperature = 21.0    // 默认流体温度 °C
	Gravity            = 9.81    // 重力加速度 m/s²
)
