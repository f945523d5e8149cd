package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/fsdevblog/chartcredits/internal/domain"
	"github.com/fsdevblog/chartcredits/internal/repository/repoargs"
	"github.com/fsdevblog/chartcredits/pkg/uow"
)

type CreditService struct {
	userRepo UserRepository
}

func NewCreditService(u uow.UOW) (*CreditService, error) {
	userRepo, err := uow.GetRepositoryAs[UserRepository](u, uow.RepositoryName(repoargs.UserRepoName))
	if err != nil {
		return nil, err
	}
	return &CreditService{userRepo: userRepo}, nil
}

// GetBalance возвращает текущий баланс кредитов юзера. Ошибка domain.ErrUserNotFound, если юзера нет.
func (c *CreditService) GetBalance(ctx context.Context, userID int64) (int64, error) {
	credits, err := c.userRepo.GetCredits(ctx, userID)
	if err != nil {
		return 0, mapUserErr(err, userID)
	}
	return credits, nil
}

// Spend атомарно списывает amount кредитов и возвращает новый баланс.
// Ошибки: domain.ErrNotEnoughCredits, domain.ErrUserNotFound.
func (c *CreditService) Spend(ctx context.Context, userID int64, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("spending credits: non-positive amount %d: %w", amount, domain.ErrInvalidPayload)
	}
	credits, err := c.userRepo.DecrementCredits(ctx, userID, amount)
	if err != nil {
		return 0, mapUserErr(err, userID)
	}
	return credits, nil
}

// Refund возвращает ранее списанные кредиты.
func (c *CreditService) Refund(ctx context.Context, userID int64, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("refunding credits: non-positive amount %d: %w", amount, domain.ErrInvalidPayload)
	}
	credits, err := c.userRepo.IncrementCredits(ctx, userID, amount)
	if err != nil {
		return 0, mapUserErr(err, userID)
	}
	return credits, nil
}

func mapUserErr(err error, userID int64) error {
	if errors.Is(err, domain.ErrRecordNotFound) {
		return fmt.Errorf("%w: id %d", domain.ErrUserNotFound, userID)
	}
	return err //nolint:wrapcheck
}
