package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"tinyhouse/internal/app/commands"
	"tinyhouse/internal/app/dto"
	meapp "tinyhouse/internal/app/handlers/me"
)

type MeHandler struct {
	Commands commands.Bus
	Logger   *slog.Logger
}

type connectWalletRequest struct {
	Code string `json:"code"`
}

func (h MeHandler) ConnectWallet(c *gin.Context) {
	var req connectWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid_input"})
		return
	}
	cmd := meapp.ConnectWalletCommand{ViewerID: viewerID(c), Code: req.Code}
	result, err := commands.Dispatch[meapp.ConnectWalletCommand, dto.Wallet](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h MeHandler) DisconnectWallet(c *gin.Context) {
	cmd := meapp.DisconnectWalletCommand{ViewerID: viewerID(c)}
	result, err := commands.Dispatch[meapp.DisconnectWalletCommand, dto.Wallet](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ MeHTTP = MeHandler{}
