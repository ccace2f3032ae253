// Package paytable 负责读取赔付表文件并在文件变化时热重载引擎。
package paytable

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/wfunc/slot-payout/internal/game/slot"
	"gopkg.in/yaml.v3"
)

// Decode 解码赔付表配置，未知字段直接报错
func Decode(r io.Reader) (*slot.PaytableConfig, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	cfg := &slot.PaytableConfig{}
	if err := dec.Decode(cfg); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("%w: 赔付表文件为空", slot.ErrInvalidConfig)
		}
		return nil, fmt.Errorf("%w: %v", slot.ErrInvalidConfig, err)
	}
	return cfg, nil
}

// LoadConfig 从文件读取赔付表配置
func LoadConfig(path string) (*slot.PaytableConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取赔付表失败: %w", err)
	}
	return Decode(bytes.NewReader(data))
}

// Load 读取并构建赔付表，path 为空时使用内置经典水果机
func Load(path string) (*slot.Paytable, error) {
	if path == "" {
		return slot.NewPaytable(slot.DefaultPaytableConfig())
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	pt, err := slot.NewPaytable(cfg)
	if err != nil {
		return nil, fmt.Errorf("赔付表 %s: %w", path, err)
	}
	return pt, nil
}

// Encode 把配置写成YAML
func Encode(w io.Writer, cfg *slot.PaytableConfig) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	return enc.Close()
}
