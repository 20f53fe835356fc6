package http

import (
	"net/http"
	"strconv"
	"time"

	"stayhaven/internal/usecase"
	"stayhaven/pkg/logger"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	walletUseCase usecase.WalletUseCase
	reconUseCase  usecase.ReconciliationUseCase
	logger        *logger.Logger
}

func NewAdminHandler(walletUseCase usecase.WalletUseCase, reconUseCase usecase.ReconciliationUseCase, logger *logger.Logger) *AdminHandler {
	return &AdminHandler{
		walletUseCase: walletUseCase,
		reconUseCase:  reconUseCase,
		logger:        logger,
	}
}

// ListUnmatched godoc
// @Summary      List unmatched gateway events
// @Description  Events whose external reference matched no known transaction
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        limit query int false "Page size"
// @Param        offset query int false "Offset"
// @Success      200  {object}  map[string]interface{}
// @Router       /admin/reconciliation/unmatched [get]
func (h *AdminHandler) ListUnmatched(c *gin.Context) {
	limit, offset := pagination(c)

	transactions, err := h.reconUseCase.ListUnmatched(limit, offset)
	if err != nil {
		h.logger.Error("Failed to list unmatched transactions: %v", err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transactions": transactions, "count": len(transactions)})
}

// VerifyTransaction godoc
// @Summary      Verify a pending transaction against the gateway
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Transaction ID"
// @Success      200  {object}  entity.Transaction
// @Failure      404  {object}  map[string]string
// @Router       /admin/reconciliation/transactions/{id}/verify [post]
func (h *AdminHandler) VerifyTransaction(c *gin.Context) {
	transaction, err := h.reconUseCase.VerifyPendingTransaction(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.logger.Error("Failed to verify transaction: %v", err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, transaction)
}

// SweepPending godoc
// @Summary      Sweep stale pending transactions
// @Description  Re-verify pending transactions older than the given age against the gateway
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        older_than_minutes query int false "Minimum age in minutes, default 30"
// @Param        limit query int false "Maximum transactions to sweep, default 50"
// @Success      200  {object}  map[string]interface{}
// @Router       /admin/reconciliation/sweep [post]
func (h *AdminHandler) SweepPending(c *gin.Context) {
	olderThan := 30 * time.Minute
	if minutes, err := strconv.Atoi(c.Query("older_than_minutes")); err == nil && minutes > 0 {
		olderThan = time.Duration(minutes) * time.Minute
	}
	limit, _ := pagination(c)

	settled, err := h.reconUseCase.SweepPending(c.Request.Context(), olderThan, limit)
	if err != nil {
		h.logger.Error("Sweep failed: %v", err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"settled": settled})
}

// CheckIntegrity godoc
// @Summary      Check a wallet's balance integrity
// @Description  Compare the stored balance against the sum of applied ledger entries
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        user_id path string true "User ID"
// @Success      200  {object}  map[string]interface{}
// @Router       /admin/wallets/{user_id}/integrity [get]
func (h *AdminHandler) CheckIntegrity(c *gin.Context) {
	consistent, err := h.walletUseCase.CheckBalanceIntegrity(c.Param("user_id"))
	if err != nil {
		h.logger.Error("Integrity check failed: %v", err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"consistent": consistent})
}
