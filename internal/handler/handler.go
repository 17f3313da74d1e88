package handler

import (
	"errors"
	"strconv"
	"time"

	"bankcore/internal/config"
	"bankcore/internal/infrastructure/cache"
	"bankcore/internal/model"
	"bankcore/internal/repository"
	"bankcore/internal/service"
	"bankcore/pkg/currency"
	"bankcore/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Handler 统一处理器，包含所有服务依赖
type Handler struct {
	accountService     *service.AccountService
	transactionService *service.TransactionService
	tokenStore         *cache.TokenStore
}

// NewHandler 创建处理器实例
func NewHandler(db *gorm.DB, rdb *redis.Client, cfg *config.Config, logger zerolog.Logger) *Handler {
	tokenTTL := time.Duration(cfg.Business.TokenTTLMinutes) * time.Minute
	return &Handler{
		accountService:     service.NewAccountService(db, rdb, cfg, logger),
		transactionService: service.NewTransactionService(db, cfg, logger),
		tokenStore:         cache.NewTokenStore(rdb, tokenTTL),
	}
}

// writeError 把交易核心的错误分类映射为业务码；
// 未识别的错误一律按服务端错误返回，不吞掉也不细分。
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrAccountNotFound):
		response.BusinessError(c, response.CodeAccountNotFound, "账户不存在")
	case errors.Is(err, repository.ErrBalanceNotEnough):
		response.BusinessError(c, response.CodeBalanceNotEnough, "余额不足")
	case errors.Is(err, service.ErrAccessDenied):
		response.BusinessError(c, response.CodeAccessDenied, "无权操作该账户")
	case errors.Is(err, service.ErrGenerationExhausted):
		response.BusinessError(c, response.CodeGenerationExhausted, "取号失败，请稍后重试")
	case errors.Is(err, service.ErrConcurrencyConflict):
		response.BusinessError(c, response.CodeConcurrencyConflict, "操作冲突，请重试")
	case errors.Is(err, model.ErrInvalidAmount):
		response.BusinessError(c, response.CodeInvalidAmount, "金额必须大于0")
	case errors.Is(err, model.ErrSameAccount):
		response.BusinessError(c, response.CodeSameAccount, "来源账户与目标账户不能相同")
	default:
		response.ServerError(c, err.Error())
	}
}

// actorID 取认证中间件写入的当前用户
func actorID(c *gin.Context) int64 {
	return c.GetInt64(ContextKeyUserID)
}

// parseAmount 金额以十进制字符串进出 API，在边界一次性换算为分。
func parseAmount(c *gin.Context, raw string) (int64, bool) {
	cents, err := currency.ParseToCents(raw)
	if err != nil {
		response.ParamError(c, "amount 参数错误")
		return 0, false
	}
	return cents, true
}

// ============================================================
// 认证相关接口
// ============================================================

// IssueTokenRequest 签发令牌请求。
// 口令校验属于认证子系统，这里只负责 token 状态的维护。
type IssueTokenRequest struct {
	UserID int64 `json:"user_id" binding:"required"`
}

// IssueToken 签发令牌
// POST /api/v1/auth/token
func (h *Handler) IssueToken(c *gin.Context) {
	var req IssueTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	token, err := h.tokenStore.Issue(c.Request.Context(), req.UserID)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, gin.H{"token": token})
}

// RevokeToken 吊销令牌（登出）
// DELETE /api/v1/auth/token
func (h *Handler) RevokeToken(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		response.ParamError(c, "缺少令牌")
		return
	}
	if err := h.tokenStore.Revoke(c.Request.Context(), token); err != nil {
		response.ServerError(c, err.Error())
		return
	}
	response.Success(c, nil)
}

// ============================================================
// 账户相关接口
// ============================================================

// OpenAccountRequest 开户请求
type OpenAccountRequest struct {
	Category string `json:"category" binding:"required,oneof=INDIVIDUAL CORPORATE"`
}

// OpenAccount 开户
// POST /api/v1/account/open
func (h *Handler) OpenAccount(c *gin.Context) {
	var req OpenAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	account, err := h.accountService.OpenAccount(c.Request.Context(), actorID(c), req.Category)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{
		"account_number": account.AccountNumber,
		"agency_number":  account.AgencyNumber,
		"category":       account.Category,
		"balance":        currency.FormatCents(account.Balance),
	})
}

// GetBalance 查询余额
// GET /api/v1/account/balance?account_number=xxx
func (h *Handler) GetBalance(c *gin.Context) {
	accountNumber, err := strconv.ParseInt(c.Query("account_number"), 10, 64)
	if err != nil {
		response.ParamError(c, "account_number 参数错误")
		return
	}

	balance, err := h.accountService.GetBalance(c.Request.Context(), accountNumber)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{
		"account_number": accountNumber,
		"balance":        currency.FormatCents(balance),
	})
}

// ============================================================
// 交易相关接口
// ============================================================

// DepositRequest 存款请求
type DepositRequest struct {
	AccountNumber int64  `json:"account_number" binding:"required"`
	Amount        string `json:"amount" binding:"required"`
}

// Deposit 存款
// POST /api/v1/transaction/deposit
func (h *Handler) Deposit(c *gin.Context) {
	var req DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}
	cents, ok := parseAmount(c, req.Amount)
	if !ok {
		return
	}

	deposit, err := h.transactionService.Deposit(c.Request.Context(), actorID(c), req.AccountNumber, cents)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{
		"transaction_no": deposit.TransactionNo(),
		"type":           deposit.Kind(),
		"amount":         currency.FormatCents(deposit.AmountCents()),
		"committed_at":   deposit.CommittedAt().Format(time.RFC3339),
	})
}

// WithdrawRequest 取款请求
type WithdrawRequest struct {
	AccountNumber int64  `json:"account_number" binding:"required"`
	Amount        string `json:"amount" binding:"required"`
}

// Withdraw 取款
// POST /api/v1/transaction/withdraw
func (h *Handler) Withdraw(c *gin.Context) {
	var req WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}
	cents, ok := parseAmount(c, req.Amount)
	if !ok {
		return
	}

	withdraw, err := h.transactionService.Withdraw(c.Request.Context(), actorID(c), req.AccountNumber, cents)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{
		"transaction_no": withdraw.TransactionNo(),
		"type":           withdraw.Kind(),
		"amount":         currency.FormatCents(withdraw.AmountCents()),
		"committed_at":   withdraw.CommittedAt().Format(time.RFC3339),
	})
}

// TransferRequest 转账请求（按账号）
type TransferRequest struct {
	OriginAccountNumber      int64  `json:"origin_account_number" binding:"required"`
	DestinationAccountNumber int64  `json:"destination_account_number" binding:"required"`
	Amount                   string `json:"amount" binding:"required"`
}

// Transfer 转账
// POST /api/v1/transaction/transfer
func (h *Handler) Transfer(c *gin.Context) {
	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}
	cents, ok := parseAmount(c, req.Amount)
	if !ok {
		return
	}

	transfer, err := h.transactionService.Transfer(c.Request.Context(), actorID(c),
		req.OriginAccountNumber, req.DestinationAccountNumber, cents)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, transferView(transfer))
}

// TransferToUserRequest 转账请求（按收款人用户）
type TransferToUserRequest struct {
	OriginAccountNumber int64  `json:"origin_account_number" binding:"required"`
	DestinationUserID   int64  `json:"destination_user_id" binding:"required"`
	Amount              string `json:"amount" binding:"required"`
}

// TransferToUser 按收款人用户转账
// POST /api/v1/transaction/transfer-to-user
func (h *Handler) TransferToUser(c *gin.Context) {
	var req TransferToUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}
	cents, ok := parseAmount(c, req.Amount)
	if !ok {
		return
	}

	transfer, err := h.transactionService.TransferToUser(c.Request.Context(), actorID(c),
		req.OriginAccountNumber, req.DestinationUserID, cents)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, transferView(transfer))
}

func transferView(t *model.Transfer) gin.H {
	return gin.H{
		"transaction_no": t.TransactionNo(),
		"type":           t.Kind(),
		"amount":         currency.FormatCents(t.AmountCents()),
		"committed_at":   t.CommittedAt().Format(time.RFC3339),
	}
}

// GetTransactionLog 按流水号查审计日志
// GET /api/v1/transaction/log?transaction_no=xxx
func (h *Handler) GetTransactionLog(c *gin.Context) {
	transactionNo := c.Query("transaction_no")
	if transactionNo == "" {
		response.ParamError(c, "transaction_no 参数错误")
		return
	}

	logRow, err := h.transactionService.GetLogByTransactionNo(c.Request.Context(), transactionNo)
	if err != nil {
		if errors.Is(err, repository.ErrTransactionNotFound) || errors.Is(err, repository.ErrLogNotFound) {
			response.BusinessError(c, response.CodeTransactionNotFound, "流水不存在")
			return
		}
		writeError(c, err)
		return
	}

	response.Success(c, logRow)
}

// ListTransactions 查询账户流水
// GET /api/v1/transaction/list?account_number=xxx&page=1&page_size=20
func (h *Handler) ListTransactions(c *gin.Context) {
	accountNumber, err := strconv.ParseInt(c.Query("account_number"), 10, 64)
	if err != nil {
		response.ParamError(c, "account_number 参数错误")
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

	transactions, total, err := h.transactionService.ListByAccountNumber(c.Request.Context(), accountNumber, page, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{
		"total": total,
		"list":  transactions,
	})
}
