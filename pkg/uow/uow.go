// Package uow реализует unit of work поверх pgx: репозитории регистрируются фабриками и получают либо пул,
// либо открытую транзакцию.
package uow

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

type RepositoryName string
type Repository any
type RepositoryFactory func(DBTX) Repository

type UnitOfWork struct {
	conn         Beginner
	txOptions    pgx.TxOptions
	repositories map[RepositoryName]RepositoryFactory
}

func NewUnitOfWork(conn Beginner) *UnitOfWork {
	return &UnitOfWork{
		conn:         conn,
		repositories: make(map[RepositoryName]RepositoryFactory),
	}
}

// WithTxOptions задает опции, с которыми открываются транзакции в Do.
func (u *UnitOfWork) WithTxOptions(opts pgx.TxOptions) *UnitOfWork {
	u.txOptions = opts
	return u
}

// Register регистрирует фабрику репозитория. Повторная регистрация имени вернет ErrRepositoryAlreadyRegistered.
func (u *UnitOfWork) Register(name RepositoryName, factory RepositoryFactory) error {
	if factory == nil {
		return ErrNilRepositoryFactory
	}
	if _, ok := u.repositories[name]; ok {
		return ErrRepositoryAlreadyRegistered
	}
	u.repositories[name] = factory
	return nil
}

// Do выполняет fn в транзакции. Ошибка fn (или паника) откатывает транзакцию, иначе выполняется commit.
// Ошибка отката объединяется с исходной через errors.Join.
func (u *UnitOfWork) Do(ctx context.Context, fn func(context.Context, TX) error) (err error) {
	tx, txErr := u.conn.BeginTx(ctx, u.txOptions)
	if txErr != nil {
		return fmt.Errorf("[uow] begin tx: %w", txErr)
	}
	defer func() {
		// контекст запроса мог истечь, откат все равно нужно довести до конца.
		rollbackErr := tx.Rollback(context.WithoutCancel(ctx))
		if rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			err = errors.Join(err, rollbackErr)
		}
	}()

	if transErr := fn(ctx, NewTransaction(tx, u.repositories)); transErr != nil {
		return transErr
	}
	if commitErr := tx.Commit(ctx); commitErr != nil {
		return fmt.Errorf("[uow] commit: %w", commitErr)
	}
	return nil
}

// GetRepository возвращает репозиторий, работающий вне транзакции, или ErrRepositoryNotRegistered.
func (u *UnitOfWork) GetRepository(name RepositoryName) (Repository, error) {
	if repoFactory, ok := u.repositories[name]; ok {
		return repoFactory(u.conn), nil
	}
	return nil, ErrRepositoryNotRegistered
}

// GetRepositoryAs возвращает репозиторий по имени name, приведенный к типу T. Ошибки
// ErrRepositoryNotRegistered и ErrInvalidRepositoryType.
func GetRepositoryAs[T any](u UOW, name RepositoryName) (T, error) {
	var res T
	repo, err := u.GetRepository(name)
	if err != nil {
		return res, err //nolint:wrapcheck
	}
	r, ok := repo.(T)
	if !ok {
		return res, ErrInvalidRepositoryType
	}
	return r, nil
}
