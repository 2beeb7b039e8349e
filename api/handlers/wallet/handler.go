package wallet

import (
	"strconv"

	"backend/internal/common"
	walletSvc "backend/internal/wallet"

	"github.com/gin-gonic/gin"
)

// Handler 钱包查询处理器
type Handler struct {
	svc *walletSvc.Service
}

// NewHandler 创建处理器
func NewHandler(svc *walletSvc.Service) *Handler {
	return &Handler{svc: svc}
}

// GetBalance 查询用户钱包余额
// @Summary 获取指定用户钱包余额
// @Tags Wallet
// @Security BearerAuth
// @Param userId path int true "用户ID"
// @Produce json
// @Success 200 {object} common.APIResponse
// @Router /api/wallets/{userId}/balance [get]
func (h *Handler) GetBalance(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil {
		common.ResponseBadRequest(c, "无效的用户ID")
		return
	}

	balance, err := h.svc.GetBalance(c.Request.Context(), userID)
	if err != nil {
		common.ResponseBizError(c, err)
		return
	}

	common.ResponseSuccess(c, gin.H{
		"user_id": userID,
		"balance": balance,
	})
}

// ListTransactions 查询用户钱包流水
// @Summary 分页获取用户钱包流水
// @Tags Wallet
// @Security BearerAuth
// @Param userId path int true "用户ID"
// @Param page query int false "页码，从1开始"
// @Param page_size query int false "每页条数"
// @Produce json
// @Success 200 {object} common.APIResponse
// @Router /api/wallets/{userId}/transactions [get]
func (h *Handler) ListTransactions(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil {
		common.ResponseBadRequest(c, "无效的用户ID")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	txns, total, err := h.svc.ListTransactions(c.Request.Context(), userID, pageSize, (page-1)*pageSize)
	if err != nil {
		common.ResponseBizError(c, err)
		return
	}

	common.ResponseSuccess(c, gin.H{
		"items":     txns,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}
