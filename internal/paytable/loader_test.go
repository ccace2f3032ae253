package paytable

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/slot-payout/internal/game/slot"
)

const miniPaytable = `
name: mini
rows: 1
reels: 3
target_rtp: 0.3
symbols:
  - {id: a, weight: 5, class: low}
  - {id: b, weight: 5, class: low}
  - {id: c, weight: 5, class: mid}
  - {id: w, weight: 1, class: high, wildcard: true}
tiers:
  - {tier: loss, probability: 0.8}
  - {tier: small, probability: 0.2, min_multiplier: 1.5, max_multiplier: 1.5, pool: low}
rewards:
  - {name: a_3, kind: row, symbol: a, count: 3}
  - {name: b_3, kind: row, symbol: b, count: 3}
`

// writeFile 写入临时赔付表文件
func writeFile(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "paytable.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDecode(t *testing.T) {
	cfg, err := Decode(strings.NewReader(miniPaytable))
	require.NoError(t, err)
	assert.Equal(t, "mini", cfg.Name)
	assert.Len(t, cfg.Symbols, 4)
	assert.True(t, cfg.Symbols[3].Wildcard)
	assert.Equal(t, "small", cfg.Tiers[1].Tier)

	pt, err := slot.NewPaytable(cfg)
	require.NoError(t, err)
	assert.InDelta(t, 0.3, pt.ExpectedRTP(), 1e-9)
}

func TestDecode_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		content string
	}{
		{"未知字段", "name: x\nreel_count: 5\n"},
		{"类型错误", "name: x\nrows: three\n"},
		{"空文件", ""},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tc.content))
			require.Error(t, err)
			assert.ErrorIs(t, err, slot.ErrInvalidConfig)
		})
	}
}

func TestLoad(t *testing.T) {
	t.Run("内置赔付表", func(t *testing.T) {
		pt, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "classic_fruit", pt.Name)
	})

	t.Run("文件", func(t *testing.T) {
		pt, err := Load(writeFile(t, t.TempDir(), miniPaytable))
		require.NoError(t, err)
		assert.Equal(t, "mini", pt.Name)
		assert.Equal(t, 3, pt.Reels)
	})

	t.Run("文件不存在", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})

	t.Run("未知图案", func(t *testing.T) {
		bad := miniPaytable + "  - {name: p, kind: pattern, pattern: spiral}\n"
		_, err := Load(writeFile(t, t.TempDir(), bad))
		assert.ErrorIs(t, err, slot.ErrUnknownPattern)
	})

	t.Run("概率之和不为1", func(t *testing.T) {
		bad := strings.Replace(miniPaytable, "probability: 0.2", "probability: 0.3", 1)
		_, err := Load(writeFile(t, t.TempDir(), bad))
		assert.ErrorIs(t, err, slot.ErrInvalidTierTable)
	})
}

func TestEncode_DefaultDecodesBack(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, slot.DefaultPaytableConfig()))

	cfg, err := Decode(&buf)
	require.NoError(t, err)
	pt, err := slot.NewPaytable(cfg)
	require.NoError(t, err)
	assert.InDelta(t, 0.45, pt.ExpectedRTP(), 1e-9)
	assert.Len(t, pt.Rules(), len(slot.DefaultPaytableConfig().Rewards))
}

func TestLoadConfig_ShippedFileMatchesBuiltin(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("..", "..", "config", "paytable.yaml"))
	require.NoError(t, err)
	assert.Equal(t, slot.DefaultPaytableConfig(), cfg)
}
