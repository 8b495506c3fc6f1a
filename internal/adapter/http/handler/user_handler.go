package handler

import (
	"currency-wallet/internal/adapter/http/dto"
	"currency-wallet/internal/core/ports"
	"currency-wallet/pkg/apperror"
	"currency-wallet/pkg/response"

	"github.com/gin-gonic/gin"
)

// UserHandler handles user self-service endpoints.
type UserHandler struct {
	walletSvc ports.WalletService
}

// NewUserHandler creates a new user handler.
func NewUserHandler(walletSvc ports.WalletService) *UserHandler {
	return &UserHandler{walletSvc: walletSvc}
}

// SetupWallet handles POST /api/v1/users/setup-wallet. Linking bank
// details marks the account wallet-ready and creates the wallet row.
func (h *UserHandler) SetupWallet(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.SetupWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	user, err := h.walletSvc.SetupWallet(c.Request.Context(), ports.SetupWalletRequest{
		UserID:      userID,
		BankAccount: req.BankAccount,
		RoutingCode: req.RoutingCode,
		Currency:    req.Currency,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.ToUserResponse(user))
}
