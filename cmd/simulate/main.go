package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/shopspring/decimal"
	"github.com/wfunc/slot-payout/internal/config"
	"github.com/wfunc/slot-payout/internal/game/slot"
	"github.com/wfunc/slot-payout/internal/logger"
	"github.com/wfunc/slot-payout/internal/paytable"
	"github.com/wfunc/slot-payout/internal/stats"
	"go.uber.org/zap"
)

func main() {
	var (
		configPath   = flag.String("config", "", "配置文件路径，用于读取默认赔付表")
		paytablePath = flag.String("paytable", "", "赔付表文件，优先于配置")
		spins        = flag.Int("spins", 1000000, "旋转次数")
		betStr       = flag.String("bet", "1", "每次下注金额")
		seed         = flag.Uint64("seed", 0, "随机种子，0 表示使用加密随机数")
		confidence   = flag.Float64("confidence", stats.DefaultConfidence, "置信水平")
		margin       = flag.Float64("margin", 0.005, "期望的RTP区间半宽，用于估算所需旋转次数")
		asJSON       = flag.Bool("json", false, "以JSON输出报告")
		quiet        = flag.Bool("quiet", false, "不显示进度条")
	)
	flag.Parse()

	if err := run(*configPath, *paytablePath, *spins, *betStr, *seed, *confidence, *margin, *asJSON, *quiet); err != nil {
		fmt.Fprintf(os.Stderr, "模拟失败: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, paytablePath string, spins int, betStr string, seed uint64, confidence, margin float64, asJSON, quiet bool) error {
	if spins <= 0 {
		return fmt.Errorf("spins 必须大于0")
	}
	bet, err := decimal.NewFromString(betStr)
	if err != nil || !bet.IsPositive() {
		return fmt.Errorf("无效的下注金额 %q", betStr)
	}

	if paytablePath == "" && configPath != "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		paytablePath = cfg.Engine.PaytableFile
	}
	pt, err := paytable.Load(paytablePath)
	if err != nil {
		return err
	}

	var rng slot.RandomGenerator = slot.NewCryptoRandomGenerator()
	if seed != 0 {
		rng = slot.NewSeededRandomGenerator(seed)
	}
	// 模拟时只关心兜底告警
	engineLog := logger.GetModuleLogger("engine").WithOptions(zap.IncreaseLevel(zap.WarnLevel))
	engine := slot.NewEngine(pt, slot.WithRandom(rng), slot.WithLogger(engineLog))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bar := pb.StartNew(spins)
	if quiet || asJSON {
		bar.SetWriter(io.Discard)
	}
	res, err := slot.Simulate(ctx, engine, spins, bet, func(int) { bar.Increment() })
	used := time.Since(bar.StartTime())
	bar.Finish()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	rep := stats.Analyze(res, confidence)
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Paytable string                 `json:"paytable"`
			Result   *slot.SimulationResult `json:"result"`
			Report   *stats.Report          `json:"report"`
		}{pt.Name, res, rep})
	}

	printReport(os.Stdout, pt, res, rep, used, margin)
	return nil
}

func printReport(w io.Writer, pt *slot.Paytable, res *slot.SimulationResult, rep *stats.Report, used time.Duration, margin float64) {
	fmt.Fprintf(w, "赔付表: %s (%dx%d)\n", pt.Name, pt.Rows, pt.Reels)
	fmt.Fprintf(w, "旋转: %d  用时: %s\n", res.Spins, used.Round(time.Millisecond))
	fmt.Fprintf(w, "总下注: %s  总赔付: %s  最大单次赔付: %s\n",
		res.TotalBet.StringFixed(2), res.TotalPayout.StringFixed(2), res.MaxPayout.StringFixed(2))
	fmt.Fprintf(w, "兜底生成: %d\n", res.Fallbacks)
	fmt.Fprintln(w)

	pct := rep.Confidence * 100
	fmt.Fprintf(w, "期望RTP: %.4f\n", rep.ExpectedRTP)
	fmt.Fprintf(w, "实测RTP: %.4f  %.0f%% CI [%.4f, %.4f]\n", rep.RTP.Hat, pct, rep.RTP.CI.Lo, rep.RTP.CI.Hi)
	if rep.WithinCI() {
		fmt.Fprintln(w, "结论: 期望RTP落在置信区间内")
	} else {
		fmt.Fprintln(w, "结论: 期望RTP不在置信区间内，请检查赔付表")
	}
	fmt.Fprintf(w, "中奖率: %.4f  [%.4f, %.4f]\n", rep.HitRate.Hat, rep.HitRate.CI.Lo, rep.HitRate.CI.Hi)
	fmt.Fprintf(w, "波动性(σ): %.4f  P99回报: %.2f  最大回报: %.2f\n", rep.StdDev, rep.P99Return, rep.MaxReturn)
	if need := stats.RequiredSpins(rep.StdDev, margin, rep.Confidence); need > 0 {
		fmt.Fprintf(w, "RTP误差 ±%.4f 需要约 %d 次旋转\n", margin, need)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "档位命中率:")
	specs := pt.Tiers()
	sort.SliceStable(specs, func(i, j int) bool { return specs[i].Tier < specs[j].Tier })
	for _, spec := range specs {
		name := spec.Tier.String()
		est := rep.TierRates[name]
		fmt.Fprintf(w, "  %-8s 配置 %.4f  实测 %.4f  [%.4f, %.4f]\n",
			name, spec.Probability, est.Hat, est.CI.Lo, est.CI.Hi)
	}
}
