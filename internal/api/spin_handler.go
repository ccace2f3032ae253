package api

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	apperrors "github.com/wfunc/slot-payout/internal/errors"
	"github.com/wfunc/slot-payout/internal/game/slot"
	"github.com/wfunc/slot-payout/internal/repository"
	"github.com/wfunc/slot-payout/internal/service"
	ws "github.com/wfunc/slot-payout/internal/websocket"
	"go.uber.org/zap"
)

// SpinHandler 旋转处理器
type SpinHandler struct {
	spinService service.SpinService
	logger      *zap.Logger
}

// NewSpinHandler 创建旋转处理器
func NewSpinHandler(spinService service.SpinService, logger *zap.Logger) *SpinHandler {
	return &SpinHandler{
		spinService: spinService,
		logger:      logger,
	}
}

// PaytableResponse 赔付表响应
type PaytableResponse struct {
	Name        string               `json:"name"`
	Rows        int                  `json:"rows"`
	Reels       int                  `json:"reels"`
	TargetRTP   float64              `json:"target_rtp"`
	ExpectedRTP float64              `json:"expected_rtp"`
	Config      *slot.PaytableConfig `json:"config"`
}

// Spin 执行一次旋转
// 下注金额可以是字符串或数字，例如 {"bet": "10.50"}
func (h *SpinHandler) Spin(c *gin.Context) {
	var req service.SpinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperrors.New(apperrors.ErrInvalidParam, "参数错误: "+err.Error()))
		return
	}

	outcome, err := h.spinService.Spin(c.Request.Context(), &req)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrSpinFailed) {
			h.logger.Error("旋转失败", zap.Error(err))
		}
		fail(c, err)
		return
	}
	ok(c, ws.NewSpinEvent(outcome))
}

// GetPaytable 当前赔付表
func (h *SpinHandler) GetPaytable(c *gin.Context) {
	pt, err := h.spinService.Paytable()
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, PaytableResponse{
		Name:        pt.Name,
		Rows:        pt.Rows,
		Reels:       pt.Reels,
		TargetRTP:   pt.TargetRTP,
		ExpectedRTP: pt.ExpectedRTP(),
		Config:      pt.Config(),
	})
}

// GetSpin 查询单条审计记录
func (h *SpinHandler) GetSpin(c *gin.Context) {
	rec, err := h.spinService.GetSpin(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, rec)
}

// ListSpins 分页查询审计记录
// 查询参数：page, page_size, tier, paytable, wins_only, since, until (RFC3339)
func (h *SpinHandler) ListSpins(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	filter := repository.SpinFilter{
		Paytable: c.Query("paytable"),
		Tier:     c.Query("tier"),
	}
	if v := c.Query("wins_only"); v != "" {
		winsOnly, err := strconv.ParseBool(v)
		if err != nil {
			fail(c, apperrors.New(apperrors.ErrInvalidParam, "wins_only: "+v))
			return
		}
		filter.WinsOnly = winsOnly
	}
	for key, dst := range map[string]*time.Time{"since": &filter.Since, "until": &filter.Until} {
		v := c.Query(key)
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			fail(c, apperrors.New(apperrors.ErrInvalidParam, key+": "+v))
			return
		}
		*dst = t
	}

	records, p, err := h.spinService.ListSpins(c.Request.Context(), filter, page, pageSize)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, ListResponse{
		Records:  records,
		Total:    p.Total,
		Page:     p.Page,
		PageSize: p.PageSize,
	})
}

// GetStats 引擎与审计统计
func (h *SpinHandler) GetStats(c *gin.Context) {
	stats, err := h.spinService.Statistics(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, stats)
}
