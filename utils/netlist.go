package utils

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrNetList 网表字段错误
var ErrNetList = errors.New("网表字段错误")

// NetList 网表单行字段
type NetList []string

// Fields 拆分一行网表，去除行尾注释
func Fields(line string) NetList {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	return NetList(strings.Fields(line))
}

// IsMark 是否为 '.' 开头的指令行
func (value NetList) IsMark() bool { return len(value) > 0 && strings.HasPrefix(value[0], ".") }

// ParseString 获取字符串
func (value NetList) ParseString(i int) (string, error) {
	if i < len(value) {
		return value[i], nil
	}
	return "", fmt.Errorf("缺少第 %d 个字段: %w", i+1, ErrNetList)
}

// ParseFloat64 解析64位浮点数
func (value NetList) ParseFloat64(i int) (float64, error) {
	s, err := value.ParseString(i)
	if err != nil {
		return 0, err
	}
	val, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("第 %d 个字段 %q: %w", i+1, s, ErrNetList)
	}
	return val, nil
}

// ParseFloats 从第 i 个字段起依次解析浮点数
func (value NetList) ParseFloats(i int, dst ...*float64) error {
	for n, p := range dst {
		val, err := value.ParseFloat64(i + n)
		if err != nil {
			return err
		}
		*p = val
	}
	return nil
}

// Option 查找 key=value 形式字段，from 之前的字段不参与
func (value NetList) Option(from int, key string) (string, bool) {
	prefix := key + "="
	for i := from; i < len(value); i++ {
		if v, ok := strings.CutPrefix(value[i], prefix); ok {
			return v, true
		}
	}
	return "", false
}

// Flag 是否含有独立标记字段
func (value NetList) Flag(from int, name string) bool {
	for i := from; i < len(value); i++ {
		if strings.EqualFold(value[i], name) {
			return true
		}
	}
	return false
}

// Unknown 返回既不是 key=value 已知键也不是已知标记的字段
func (value NetList) Unknown(from int, keys, flags []string) []string {
	var unknown []string
next:
	for i := from; i < len(value); i++ {
		for _, key := range keys {
			if strings.HasPrefix(value[i], key+"=") {
				continue next
			}
		}
		for _, flag := range flags {
			if strings.EqualFold(value[i], flag) {
				continue next
			}
		}
		unknown = append(unknown, value[i])
	}
	return unknown
}

// FormatFloat 以可精确还原的最短形式输出
func FormatFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
