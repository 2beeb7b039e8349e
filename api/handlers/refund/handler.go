package refund

import (
	"strconv"

	"backend/internal/auth"
	"backend/internal/common"
	refundSvc "backend/internal/refund"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// Handler 退款审核处理器
type Handler struct {
	ledger      *refundSvc.Ledger
	coordinator *refundSvc.Coordinator
}

// NewHandler 创建处理器
func NewHandler(ledger *refundSvc.Ledger, coordinator *refundSvc.Coordinator) *Handler {
	return &Handler{
		ledger:      ledger,
		coordinator: coordinator,
	}
}

// Detail 获取退款单审核视图
// @Summary 获取退款单详情（含可退上限与渠道完成额）
// @Tags Refund
// @Security BearerAuth
// @Param id path int true "退款单ID"
// @Produce json
// @Success 200 {object} common.APIResponse
// @Router /api/refunds/{id}/detail [get]
func (h *Handler) Detail(c *gin.Context) {
	refundID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		common.ResponseBadRequest(c, "无效的退款单ID")
		return
	}

	detail, err := h.ledger.Detail(c.Request.Context(), refundID)
	if err != nil {
		common.ResponseBizError(c, err)
		return
	}

	common.ResponseSuccess(c, detail)
}

type auditDTO struct {
	TargetStatus  int             `json:"target_status" binding:"required,oneof=2 3"`
	OnlineAmount  decimal.Decimal `json:"online_amount"`
	BalanceAmount decimal.Decimal `json:"balance_amount"`
	OfflineAmount decimal.Decimal `json:"offline_amount"`
	Note          string          `json:"note"`
	Voucher       string          `json:"voucher"`
}

// Audit 提交退款审核
// @Summary 审核退款单（按渠道拆分金额结算）
// @Tags Refund
// @Security BearerAuth
// @Param id path int true "退款单ID"
// @Param body body auditDTO true "审核请求"
// @Accept json
// @Produce json
// @Success 200 {object} common.APIResponse
// @Router /api/refunds/{id}/audit [post]
func (h *Handler) Audit(c *gin.Context) {
	refundID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		common.ResponseBadRequest(c, "无效的退款单ID")
		return
	}

	var dto auditDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		common.ResponseBadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	req := &refundSvc.AuditRequest{
		RefundID:      refundID,
		TargetStatus:  dto.TargetStatus,
		OnlineAmount:  dto.OnlineAmount,
		BalanceAmount: dto.BalanceAmount,
		OfflineAmount: dto.OfflineAmount,
		Note:          dto.Note,
		Voucher:       dto.Voucher,
		AdminID:       auth.AdminIDFromContext(c),
	}

	apply, err := h.coordinator.Audit(c.Request.Context(), req)
	if err != nil {
		common.ResponseBizError(c, err)
		return
	}

	common.ResponseSuccess(c, apply)
}

// ConfirmOffline 确认线下转账到账
// @Summary 线下转账到账确认
// @Tags Refund
// @Security BearerAuth
// @Param id path int true "退款单ID"
// @Produce json
// @Success 200 {object} common.APIResponse
// @Router /api/refunds/{id}/confirm-offline [post]
func (h *Handler) ConfirmOffline(c *gin.Context) {
	refundID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		common.ResponseBadRequest(c, "无效的退款单ID")
		return
	}

	apply, err := h.coordinator.ConfirmOffline(c.Request.Context(), refundID, auth.AdminIDFromContext(c))
	if err != nil {
		common.ResponseBizError(c, err)
		return
	}

	common.ResponseSuccess(c, apply)
}

// Logs 查询退款单操作流水
// @Summary 获取退款单渠道操作日志
// @Tags Refund
// @Security BearerAuth
// @Param id path int true "退款单ID"
// @Produce json
// @Success 200 {object} common.APIResponse
// @Router /api/refunds/{id}/logs [get]
func (h *Handler) Logs(c *gin.Context) {
	refundID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		common.ResponseBadRequest(c, "无效的退款单ID")
		return
	}

	logs, err := h.ledger.Logs(c.Request.Context(), refundID)
	if err != nil {
		common.ResponseBizError(c, err)
		return
	}

	common.ResponseSuccess(c, logs)
}
