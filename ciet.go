package ciet

import (
	"bufio"
	"ciet/catalog"
	"ciet/element"
	"ciet/fluid"
	"ciet/friction"
	"ciet/network"
	"ciet/utils"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrLoad 网表解析错误
var ErrLoad = errors.New("网表解析错误")

// 网表关键字
var (
	componentKeys  = []string{"area", "K", "k", "darcy"}
	componentFlags = []string{"pump"}
	branchFlags    = []string{"checkvalve", "reference"}
)

// Loop 回路网表
// 指令行 .branch <名称> [checkvalve] [reference] 声明分支属性，
// 元件行 <分支> <名称> <pipe|custom> D L 倾角 粗糙度 [area=] (K= | k= darcy=) [pump]。
type Loop struct {
	Branches []network.BranchConfig
}

// NewLoop 空回路
func NewLoop() *Loop { return &Loop{} }

// NewCIETLoop 内置 CIET 回路
func NewCIETLoop() *Loop { return &Loop{Branches: catalog.Branches()} }

// branch 按名称查找分支，不存在时追加
func (loop *Loop) branch(name string) *network.BranchConfig {
	for i := range loop.Branches {
		if loop.Branches[i].Name == name {
			return &loop.Branches[i]
		}
	}
	loop.Branches = append(loop.Branches, network.BranchConfig{Name: name})
	return &loop.Branches[len(loop.Branches)-1]
}

// Load 加载 netlist 格式数据
func (loop *Loop) Load(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()
	return loop.LoadReader(file)
}

// LoadReader 从流中加载 netlist 格式数据
func (loop *Loop) LoadReader(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for n := 1; scanner.Scan(); n++ {
		fields := utils.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		var err error
		if fields.IsMark() {
			err = loop.parseMark(fields)
		} else {
			err = loop.parseComponent(fields)
		}
		if err != nil {
			return fmt.Errorf("第 %d 行: %w", n, errors.Join(err, ErrLoad))
		}
	}
	return scanner.Err()
}

// parseMark 解析指令行
func (loop *Loop) parseMark(fields utils.NetList) error {
	if !strings.EqualFold(fields[0], ".branch") {
		return fmt.Errorf("未知指令 %s", fields[0])
	}
	name, err := fields.ParseString(1)
	if err != nil {
		return err
	}
	if unknown := fields.Unknown(2, nil, branchFlags); len(unknown) > 0 {
		return fmt.Errorf("分支 %s 未知属性 %v", name, unknown)
	}
	branch := loop.branch(name)
	branch.CheckValve = fields.Flag(2, "checkvalve")
	branch.Reference = fields.Flag(2, "reference")
	return nil
}

// parseComponent 解析元件行
func (loop *Loop) parseComponent(fields utils.NetList) error {
	var config element.Config
	name, err := fields.ParseString(1)
	if err != nil {
		return err
	}
	config.Name = name
	kind, err := fields.ParseString(2)
	if err != nil {
		return err
	}
	if err := config.Kind.UnmarshalText([]byte(kind)); err != nil {
		return err
	}
	if err := fields.ParseFloats(3, &config.Diameter, &config.Length, &config.Angle, &config.Roughness); err != nil {
		return fmt.Errorf("元件 %s: %w", name, err)
	}
	if unknown := fields.Unknown(7, componentKeys, componentFlags); len(unknown) > 0 {
		return fmt.Errorf("元件 %s 未知字段 %v", name, unknown)
	}
	if v, ok := fields.Option(7, "area"); ok {
		if err := (utils.NetList{v}).ParseFloats(0, &config.Area); err != nil {
			return fmt.Errorf("元件 %s area: %w", name, err)
		}
	}
	switch config.Kind {
	case element.KindPipe:
		if v, ok := fields.Option(7, "K"); ok {
			if err := (utils.NetList{v}).ParseFloats(0, &config.FormLoss); err != nil {
				return fmt.Errorf("元件 %s K: %w", name, err)
			}
		}
	case element.KindCustom:
		config.K, config.Darcy = friction.Zero(), friction.Zero()
		if v, ok := fields.Option(7, "k"); ok {
			if config.K, err = friction.ParseCorrelation(v); err != nil {
				return fmt.Errorf("元件 %s k: %w", name, err)
			}
		}
		if v, ok := fields.Option(7, "darcy"); ok {
			if config.Darcy, err = friction.ParseCorrelation(v); err != nil {
				return fmt.Errorf("元件 %s darcy: %w", name, err)
			}
		}
	}
	config.Pump = fields.Flag(7, "pump")
	if err := config.Validate(); err != nil {
		return err
	}
	branch := loop.branch(fields[0])
	branch.Components = append(branch.Components, config)
	return nil
}

// Export 导出 netlist 格式数据
func (loop *Loop) Export(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := loop.Write(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// Write 以 netlist 格式写出
func (loop *Loop) Write(w io.Writer) error {
	writer := bufio.NewWriter(w)
	for _, branch := range loop.Branches {
		writer.WriteString(".branch ")
		writer.WriteString(branch.Name)
		if branch.CheckValve {
			writer.WriteString(" checkvalve")
		}
		if branch.Reference {
			writer.WriteString(" reference")
		}
		writer.WriteRune('\n')
		for _, c := range branch.Components {
			fmt.Fprintf(writer, "%s %s %s %s %s %s %s", branch.Name, c.Name, c.Kind,
				utils.FormatFloat(c.Diameter), utils.FormatFloat(c.Length),
				utils.FormatFloat(c.Angle), utils.FormatFloat(c.Roughness))
			if c.Area > 0 {
				writer.WriteString(" area=" + utils.FormatFloat(c.Area))
			}
			switch c.Kind {
			case element.KindPipe:
				writer.WriteString(" K=" + utils.FormatFloat(c.FormLoss))
			case element.KindCustom:
				writer.WriteString(" k=" + c.K.String() + " darcy=" + c.Darcy.String())
			}
			if c.Pump {
				writer.WriteString(" pump")
			}
			writer.WriteRune('\n')
		}
	}
	return writer.Flush()
}

// Network 创建求解网络，props 为空时使用 Therminol VP-1
func (loop *Loop) Network(props fluid.Properties) (*network.Network, error) {
	if props == nil {
		props = fluid.NewTherminol()
	}
	return network.New(props, loop.Branches...)
}
