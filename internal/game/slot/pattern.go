package slot

import (
	"fmt"
	"strings"
)

// PatternKind 几何图案类型
type PatternKind int

const (
	PatternHorizontalTop PatternKind = iota
	PatternHorizontalMiddle
	PatternHorizontalBottom
	PatternVerticalLeft
	PatternVerticalMiddle
	PatternVerticalRight
	PatternDiagonalDown // 左上到右下
	PatternDiagonalUp   // 左下到右上
	PatternZigzagTop
	PatternZigzagBottom
	PatternBorder
	PatternCross
	PatternX
	PatternCorners
	PatternDiamond
	PatternVShape
	PatternInvertedV
	PatternWave
)

type patternInfo struct {
	name    string
	minRows int
	minCols int
}

var patternTable = map[PatternKind]patternInfo{
	PatternHorizontalTop:    {"horizontal_top", 1, 2},
	PatternHorizontalMiddle: {"horizontal_middle", 1, 2},
	PatternHorizontalBottom: {"horizontal_bottom", 1, 2},
	PatternVerticalLeft:     {"vertical_left", 2, 1},
	PatternVerticalMiddle:   {"vertical_middle", 2, 1},
	PatternVerticalRight:    {"vertical_right", 2, 1},
	PatternDiagonalDown:     {"diagonal_down", 2, 2},
	PatternDiagonalUp:       {"diagonal_up", 2, 2},
	PatternZigzagTop:        {"zigzag_top", 2, 2},
	PatternZigzagBottom:     {"zigzag_bottom", 2, 2},
	PatternBorder:           {"border", 2, 2},
	PatternCross:            {"cross", 3, 3},
	PatternX:                {"x", 3, 3},
	PatternCorners:          {"corners", 2, 2},
	PatternDiamond:          {"diamond", 3, 3},
	PatternVShape:           {"v_shape", 2, 3},
	PatternInvertedV:        {"inverted_v", 2, 3},
	PatternWave:             {"wave", 3, 3},
}

// AllPatternKinds 所有图案类型
func AllPatternKinds() []PatternKind {
	out := make([]PatternKind, 0, len(patternTable))
	for k := PatternHorizontalTop; k <= PatternWave; k++ {
		out = append(out, k)
	}
	return out
}

// String 图案名称
func (k PatternKind) String() string {
	if info, ok := patternTable[k]; ok {
		return info.name
	}
	return fmt.Sprintf("pattern(%d)", int(k))
}

// ParsePatternKind 解析图案名称，未知名称返回 ErrUnknownPattern
func ParsePatternKind(name string) (PatternKind, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for k, info := range patternTable {
		if info.name == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPattern, name)
}

// PositionsFor 计算图案在 rows×cols 网格上的位置列表
// 网格小于图案的最小尺寸时返回空列表。
func PositionsFor(kind PatternKind, rows, cols int) []Position {
	info, ok := patternTable[kind]
	if !ok || rows < info.minRows || cols < info.minCols {
		return nil
	}

	switch kind {
	case PatternHorizontalTop:
		return horizontalLine(0, cols)
	case PatternHorizontalMiddle:
		return horizontalLine(rows/2, cols)
	case PatternHorizontalBottom:
		return horizontalLine(rows-1, cols)
	case PatternVerticalLeft:
		return verticalLine(0, rows)
	case PatternVerticalMiddle:
		return verticalLine(cols/2, rows)
	case PatternVerticalRight:
		return verticalLine(cols-1, rows)
	case PatternDiagonalDown:
		return diagonalLine(rows, cols, true)
	case PatternDiagonalUp:
		return diagonalLine(rows, cols, false)
	case PatternZigzagTop:
		return zigzagLine(rows, cols, true)
	case PatternZigzagBottom:
		return zigzagLine(rows, cols, false)
	case PatternBorder:
		return borderPositions(rows, cols)
	case PatternCross:
		return crossPositions(rows, cols)
	case PatternX:
		return xPositions(rows, cols)
	case PatternCorners:
		return []Position{
			{Reel: 0, Row: 0},
			{Reel: cols - 1, Row: 0},
			{Reel: 0, Row: rows - 1},
			{Reel: cols - 1, Row: rows - 1},
		}
	case PatternDiamond:
		cr, cc := rows/2, cols/2
		return []Position{
			{Reel: cc, Row: cr - 1},
			{Reel: cc - 1, Row: cr},
			{Reel: cc + 1, Row: cr},
			{Reel: cc, Row: cr + 1},
		}
	case PatternVShape:
		return vLine(rows, cols, false)
	case PatternInvertedV:
		return vLine(rows, cols, true)
	case PatternWave:
		return waveLine(rows, cols)
	}
	return nil
}

// MatchPattern 判断网格是否满足图案
//
// 以图案第一个位置的符号为参照；指定 required 时参照符号必须满足 required，
// 其余位置必须与参照符号等价。空格直接判负。
func MatchPattern(eq *Equivalence, grid Grid, kind PatternKind, required *Symbol) bool {
	positions := PositionsFor(kind, grid.Rows(), grid.Reels())
	if len(positions) == 0 {
		return false
	}
	reference := grid.At(positions[0])
	if reference == nil {
		return false
	}
	if required != nil && !eq.Matches(required, reference) {
		return false
	}
	for _, p := range positions[1:] {
		cell := grid.At(p)
		if cell == nil || !eq.Matches(reference, cell) {
			return false
		}
	}
	return true
}

func horizontalLine(row, cols int) []Position {
	line := make([]Position, cols)
	for i := 0; i < cols; i++ {
		line[i] = Position{Reel: i, Row: row}
	}
	return line
}

func verticalLine(col, rows int) []Position {
	line := make([]Position, rows)
	for i := 0; i < rows; i++ {
		line[i] = Position{Reel: col, Row: i}
	}
	return line
}

func diagonalLine(rows, cols int, downward bool) []Position {
	line := make([]Position, 0, rows)
	for i := 0; i < cols && i < rows; i++ {
		row := i
		if !downward {
			row = rows - 1 - i
		}
		line = append(line, Position{Reel: i, Row: row})
	}
	return line
}

func zigzagLine(rows, cols int, startTop bool) []Position {
	line := make([]Position, cols)
	for i := 0; i < cols; i++ {
		top := i%2 == 0
		if !startTop {
			top = !top
		}
		row := rows - 1
		if top {
			row = 0
		}
		line[i] = Position{Reel: i, Row: row}
	}
	return line
}

// borderPositions 顺时针外圈
func borderPositions(rows, cols int) []Position {
	out := make([]Position, 0, 2*(rows+cols))
	for c := 0; c < cols; c++ {
		out = append(out, Position{Reel: c, Row: 0})
	}
	for r := 1; r < rows; r++ {
		out = append(out, Position{Reel: cols - 1, Row: r})
	}
	for c := cols - 2; c >= 0; c-- {
		out = append(out, Position{Reel: c, Row: rows - 1})
	}
	for r := rows - 2; r >= 1; r-- {
		out = append(out, Position{Reel: 0, Row: r})
	}
	return out
}

func crossPositions(rows, cols int) []Position {
	cr, cc := rows/2, cols/2
	out := horizontalLine(cr, cols)
	for r := 0; r < rows; r++ {
		if r != cr {
			out = append(out, Position{Reel: cc, Row: r})
		}
	}
	return out
}

// xPositions 居中正方形的两条对角线
func xPositions(rows, cols int) []Position {
	size := rows
	if cols < size {
		size = cols
	}
	rOff, cOff := (rows-size)/2, (cols-size)/2
	out := make([]Position, 0, 2*size)
	for i := 0; i < size; i++ {
		out = append(out, Position{Reel: cOff + i, Row: rOff + i})
	}
	for i := 0; i < size; i++ {
		p := Position{Reel: cOff + i, Row: rOff + size - 1 - i}
		if p.Row == rOff+i {
			continue
		}
		out = append(out, p)
	}
	return out
}

// vLine 两端在顶行，向中间下探；inverted 时上下翻转
func vLine(rows, cols int, inverted bool) []Position {
	line := make([]Position, cols)
	for i := 0; i < cols; i++ {
		row := i
		if cols-1-i < row {
			row = cols - 1 - i
		}
		if row > rows-1 {
			row = rows - 1
		}
		if inverted {
			row = rows - 1 - row
		}
		line[i] = Position{Reel: i, Row: row}
	}
	return line
}

// waveLine 中、上、中、下循环
func waveLine(rows, cols int) []Position {
	mid := rows / 2
	cycle := [4]int{mid, 0, mid, rows - 1}
	line := make([]Position, cols)
	for i := 0; i < cols; i++ {
		line[i] = Position{Reel: i, Row: cycle[i%4]}
	}
	return line
}
