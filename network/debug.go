package network

import (
	"io"
)

// Debug 调试接口
type Debug interface {
	Init(net *Network)
	IsDebug() bool
	SetDebug(is bool)
	Update(in Input, res Result)
	Render(w io.Writer) error
	Error(err error)
}

type debug struct{ is bool }

func (debug) Init(net *Network)           {}
func (debug *debug) IsDebug() bool        { return debug.is }
func (debug *debug) SetDebug(is bool)     { debug.is = is }
func (debug) Update(in Input, res Result) {}
func (debug) Render(w io.Writer) error    { return nil }
func (debug) Error(err error)             {}

// SetDebugger 设置调试记录并初始化
func (net *Network) SetDebugger(d Debug) {
	if d == nil {
		d = &debug{}
	}
	d.Init(net)
	net.Debug = d
}
