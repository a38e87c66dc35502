package me

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"tinyhouse/internal/app/commands"
	"tinyhouse/internal/app/dto"
	"tinyhouse/internal/app/policies"
	"tinyhouse/internal/app/uow"
	domainuser "tinyhouse/internal/domain/user"
)

const (
	connectWalletKey    = "me.wallet.connect"
	disconnectWalletKey = "me.wallet.disconnect"
)

var ErrWalletAlreadyConnected = errors.New("me: wallet already connected")

// ConnectWalletCommand exchanges an authorization code from the payment provider
// for a connected account id and stores it as the viewer's wallet.
type ConnectWalletCommand struct {
	ViewerID string
	Code     string `validate:"required"`
}

func (c ConnectWalletCommand) Key() string { return connectWalletKey }

func (c ConnectWalletCommand) ViewerIdentity() string { return c.ViewerID }

type ConnectWalletHandler struct {
	Payments policies.PaymentsPort
	Logger   *slog.Logger
}

func (h *ConnectWalletHandler) Handle(ctx context.Context, cmd ConnectWalletCommand) (dto.Wallet, error) {
	if h.Payments == nil {
		return dto.Wallet{}, errors.New("me: payments port required")
	}
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return dto.Wallet{}, uow.ErrUnitOfWorkMissing
	}
	viewer := domainuser.ID(strings.TrimSpace(cmd.ViewerID))
	user, err := unit.Users().ByID(ctx, viewer)
	if err != nil {
		return dto.Wallet{}, err
	}
	if user.HasWallet() {
		return dto.Wallet{}, ErrWalletAlreadyConnected
	}
	walletID, err := h.Payments.Connect(ctx, strings.TrimSpace(cmd.Code))
	if err != nil {
		return dto.Wallet{}, fmt.Errorf("%w: %w", policies.ErrConnectFailed, err)
	}
	if err := unit.Users().SetWallet(ctx, viewer, walletID); err != nil {
		return dto.Wallet{}, err
	}
	if h.Logger != nil {
		h.Logger.Info("wallet connected", "user_id", viewer)
	}
	return dto.Wallet{UserID: string(viewer), HasWallet: true}, nil
}

type DisconnectWalletCommand struct {
	ViewerID string
}

func (c DisconnectWalletCommand) Key() string { return disconnectWalletKey }

func (c DisconnectWalletCommand) ViewerIdentity() string { return c.ViewerID }

type DisconnectWalletHandler struct {
	Logger *slog.Logger
}

func (h *DisconnectWalletHandler) Handle(ctx context.Context, cmd DisconnectWalletCommand) (dto.Wallet, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return dto.Wallet{}, uow.ErrUnitOfWorkMissing
	}
	viewer := domainuser.ID(strings.TrimSpace(cmd.ViewerID))
	if _, err := unit.Users().ByID(ctx, viewer); err != nil {
		return dto.Wallet{}, err
	}
	if err := unit.Users().SetWallet(ctx, viewer, ""); err != nil {
		return dto.Wallet{}, err
	}
	if h.Logger != nil {
		h.Logger.Info("wallet disconnected", "user_id", viewer)
	}
	return dto.Wallet{UserID: string(viewer), HasWallet: false}, nil
}

var (
	_ commands.Handler[ConnectWalletCommand, dto.Wallet]    = (*ConnectWalletHandler)(nil)
	_ commands.Handler[DisconnectWalletCommand, dto.Wallet] = (*DisconnectWalletHandler)(nil)
)
