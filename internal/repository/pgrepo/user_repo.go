package pgrepo

import (
	"context"
	"errors"

	"github.com/fsdevblog/chartcredits/internal/domain"
	"github.com/fsdevblog/chartcredits/pkg/uow"
)

const (
	userFindIDByEmailQuery = `SELECT id FROM users WHERE lower(email) = lower($1)`
	userGetCreditsQuery    = `SELECT credits FROM users WHERE id = $1`
	userIncrementQuery     = `UPDATE users SET credits = credits + $2, updated_at = now()
		WHERE id = $1
		RETURNING credits`
	userDecrementQuery = `UPDATE users SET credits = credits - $2, updated_at = now()
		WHERE id = $1 AND credits >= $2
		RETURNING credits`
)

type UserRepository struct {
	conn uow.DBTX
}

func NewUserRepository(conn uow.DBTX) *UserRepository {
	return &UserRepository{conn: conn}
}

// FindIDByEmail возвращает id юзера по email без учета регистра. Если юзер не найден - domain.ErrRecordNotFound.
func (u *UserRepository) FindIDByEmail(ctx context.Context, email string) (int64, error) {
	var id int64
	if err := u.conn.QueryRow(ctx, userFindIDByEmailQuery, email).Scan(&id); err != nil {
		return 0, convertErr(err, "finding user id by email `%s`", email)
	}
	return id, nil
}

func (u *UserRepository) GetCredits(ctx context.Context, userID int64) (int64, error) {
	var credits int64
	if err := u.conn.QueryRow(ctx, userGetCreditsQuery, userID).Scan(&credits); err != nil {
		return 0, convertErr(err, "getting credits of user %d", userID)
	}
	return credits, nil
}

// IncrementCredits атомарно увеличивает баланс юзера одним UPDATE и возвращает новое значение.
func (u *UserRepository) IncrementCredits(ctx context.Context, userID int64, amount int64) (int64, error) {
	var credits int64
	if err := u.conn.QueryRow(ctx, userIncrementQuery, userID, amount).Scan(&credits); err != nil {
		return 0, convertErr(err, "incrementing credits of user %d by %d", userID, amount)
	}
	return credits, nil
}

// DecrementCredits атомарно списывает amount кредитов. Баланс не может уйти в минус: при нехватке кредитов
// вернется domain.ErrNotEnoughCredits, при отсутствии юзера - domain.ErrRecordNotFound.
func (u *UserRepository) DecrementCredits(ctx context.Context, userID int64, amount int64) (int64, error) {
	var credits int64
	err := u.conn.QueryRow(ctx, userDecrementQuery, userID, amount).Scan(&credits)
	if err == nil {
		return credits, nil
	}

	convErr := convertErr(err, "decrementing credits of user %d by %d", userID, amount)
	if !errors.Is(convErr, domain.ErrRecordNotFound) {
		return 0, convErr
	}

	// строка не обновилась: либо юзера нет, либо не хватает кредитов.
	if _, getErr := u.GetCredits(ctx, userID); getErr != nil {
		return 0, getErr
	}
	return 0, domain.ErrNotEnoughCredits
}
