package http

import (
	"net/http"

	"stayhaven/internal/entity"
	"stayhaven/internal/repo/persistent"
	"stayhaven/internal/usecase"
	"stayhaven/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type WalletHandler struct {
	walletUseCase usecase.WalletUseCase
	logger        *logger.Logger
}

func NewWalletHandler(walletUseCase usecase.WalletUseCase, logger *logger.Logger) *WalletHandler {
	return &WalletHandler{
		walletUseCase: walletUseCase,
		logger:        logger,
	}
}

type DepositRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
	Email  string          `json:"email" binding:"required,email"`
}

type WithdrawRequest struct {
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Destination string          `json:"destination" binding:"required"`
}

type AdjustRequest struct {
	UserID string          `json:"user_id" binding:"required,uuid"`
	Amount decimal.Decimal `json:"amount" binding:"required"`
	Reason string          `json:"reason" binding:"required"`
}

// GetWallet godoc
// @Summary      Get wallet
// @Description  Get wallet balance for the authenticated user
// @Tags         wallet
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  entity.Wallet
// @Router       /wallet [get]
func (h *WalletHandler) GetWallet(c *gin.Context) {
	userID := c.GetString("user_id")

	wallet, err := h.walletUseCase.GetWallet(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to get wallet: %v", err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, wallet)
}

// InitiateDeposit godoc
// @Summary      Initiate a deposit
// @Description  Start a gateway charge that credits the wallet once settled
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body DepositRequest true "Deposit amount and payer email"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Router       /wallet/deposits [post]
func (h *WalletHandler) InitiateDeposit(c *gin.Context) {
	userID := c.GetString("user_id")

	var req DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	transaction, authorizationURL, err := h.walletUseCase.InitiateDeposit(c.Request.Context(), userID, req.Email, req.Amount)
	if err != nil {
		h.logger.Error("Failed to initiate deposit: %v", err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transaction":       transaction,
		"authorization_url": authorizationURL,
	})
}

// Withdraw godoc
// @Summary      Withdraw funds
// @Description  Debit the wallet and initiate a gateway transfer
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body WithdrawRequest true "Withdrawal amount and destination account"
// @Success      200  {object}  entity.Transaction
// @Failure      400  {object}  map[string]string
// @Router       /wallet/withdrawals [post]
func (h *WalletHandler) Withdraw(c *gin.Context) {
	userID := c.GetString("user_id")

	var req WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	txType := entity.TransactionTypeWithdrawal
	if c.GetString("user_role") == "host" {
		txType = entity.TransactionTypeHostPayout
	}

	transaction, err := h.walletUseCase.Withdraw(c.Request.Context(), userID, req.Destination, req.Amount, txType)
	if err != nil {
		h.logger.Error("Failed to withdraw: %v", err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, transaction)
}

// GetTransactions godoc
// @Summary      List transactions
// @Description  Get the ledger history for the authenticated user
// @Tags         wallet
// @Produce      json
// @Security     BearerAuth
// @Param        limit query int false "Page size"
// @Param        offset query int false "Offset"
// @Param        type query string false "Transaction type filter"
// @Param        status query string false "Transaction status filter"
// @Success      200  {object}  map[string]interface{}
// @Router       /wallet/transactions [get]
func (h *WalletHandler) GetTransactions(c *gin.Context) {
	userID := c.GetString("user_id")
	limit, offset := pagination(c)

	filter := persistent.TransactionFilter{
		Type:   entity.TransactionType(c.Query("type")),
		Status: entity.TransactionStatus(c.Query("status")),
	}

	transactions, err := h.walletUseCase.GetTransactions(userID, filter, limit, offset)
	if err != nil {
		h.logger.Error("Failed to get transactions: %v", err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transactions": transactions, "count": len(transactions)})
}

// Adjust godoc
// @Summary      Adjust a wallet balance
// @Description  Apply a signed admin correction with an audit trail
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body AdjustRequest true "Target user, signed amount and reason"
// @Success      200  {object}  entity.Transaction
// @Failure      400  {object}  map[string]string
// @Router       /admin/wallets/adjust [post]
func (h *WalletHandler) Adjust(c *gin.Context) {
	adminID := c.GetString("user_id")

	var req AdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	transaction, err := h.walletUseCase.Adjust(adminID, req.UserID, req.Amount, req.Reason)
	if err != nil {
		h.logger.Error("Failed to adjust wallet: %v", err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, transaction)
}
