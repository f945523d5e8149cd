package pgrepo

import (
	"context"

	"github.com/fsdevblog/chartcredits/internal/domain"
	"github.com/fsdevblog/chartcredits/internal/repository/repoargs"
	"github.com/fsdevblog/chartcredits/pkg/uow"
	"github.com/jackc/pgx/v5"
)

const (
	purchaseColumns = `id, created_at, user_id, credit_amount, status, payment_reference`

	purchaseCreateQuery = `INSERT INTO purchases (` + purchaseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + purchaseColumns
	purchaseFindByReferenceQuery = `SELECT ` + purchaseColumns + ` FROM purchases WHERE payment_reference = $1`
	purchaseGetByUserIDQuery     = `SELECT ` + purchaseColumns + ` FROM purchases
		WHERE user_id = $1
		ORDER BY created_at DESC`
)

type PurchaseRepository struct {
	conn uow.DBTX
}

func NewPurchaseRepository(conn uow.DBTX) *PurchaseRepository {
	return &PurchaseRepository{conn: conn}
}

// Create добавляет запись в леджер покупок. Повтор payment_reference упирается в уникальный индекс и
// возвращает domain.ErrDuplicateKey.
func (p *PurchaseRepository) Create(ctx context.Context, args repoargs.CreatePurchase) (*domain.Purchase, error) {
	row := p.conn.QueryRow(ctx, purchaseCreateQuery,
		args.ID,
		args.CreatedAt,
		args.UserID,
		args.CreditAmount,
		args.Status,
		args.PaymentReference,
	)
	purchase, err := scanPurchase(row)
	if err != nil {
		return nil, convertErr(err, "creating purchase with reference `%s`", args.PaymentReference)
	}
	return purchase, nil
}

// FindByPaymentReference ищет покупку по референсу платежа. Если записи нет - domain.ErrRecordNotFound.
func (p *PurchaseRepository) FindByPaymentReference(ctx context.Context, reference string) (*domain.Purchase, error) {
	purchase, err := scanPurchase(p.conn.QueryRow(ctx, purchaseFindByReferenceQuery, reference))
	if err != nil {
		return nil, convertErr(err, "finding purchase by reference `%s`", reference)
	}
	return purchase, nil
}

// GetByUserID возвращает покупки юзера, отсортированные по дате создания по убыванию.
func (p *PurchaseRepository) GetByUserID(ctx context.Context, userID int64) ([]domain.Purchase, error) {
	rows, err := p.conn.Query(ctx, purchaseGetByUserIDQuery, userID)
	if err != nil {
		return nil, convertErr(err, "getting purchases by userID `%d`", userID)
	}
	defer rows.Close()

	var purchases = make([]domain.Purchase, 0)
	for rows.Next() {
		purchase, scanErr := scanPurchase(rows)
		if scanErr != nil {
			return nil, convertErr(scanErr, "scanning purchase of user `%d`", userID)
		}
		purchases = append(purchases, *purchase)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, convertErr(rowsErr, "iterating purchases of user `%d`", userID)
	}
	return purchases, nil
}

func scanPurchase(row pgx.Row) (*domain.Purchase, error) {
	var purchase domain.Purchase
	err := row.Scan(
		&purchase.ID,
		&purchase.CreatedAt,
		&purchase.UserID,
		&purchase.CreditAmount,
		&purchase.Status,
		&purchase.PaymentReference,
	)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return &purchase, nil
}
