package service

import (
	"github.com/fsdevblog/chartcredits/internal/domain"
	"github.com/shopspring/decimal"
)

// minorUnitsPerMajor кол-во минимальных единиц валюты шлюза в одной основной (кобо в найре).
const minorUnitsPerMajor = 100

// creditTiers тарифная сетка: сумма платежа в минимальных единицах -> кол-во кредитов. Совпадение только точное.
var creditTiers = []domain.CreditPackage{
	{Amount: 500 * minorUnitsPerMajor, Credits: 20},
	{Amount: 2000 * minorUnitsPerMajor, Credits: 100},
	{Amount: 3500 * minorUnitsPerMajor, Credits: 250},
	{Amount: 8000 * minorUnitsPerMajor, Credits: 750},
}

// CreditsForAmount возвращает кол-во кредитов за платеж amount. Сумма вне тарифной сетки дает 0 и false,
// это не ошибка: покупка все равно фиксируется в леджере.
func CreditsForAmount(amount int64) (int64, bool) {
	for _, tier := range creditTiers {
		if tier.Amount == amount {
			return tier.Credits, true
		}
	}
	return 0, false
}

// CreditPackages возвращает пакеты кредитов с ценой в основных единицах валюты.
func CreditPackages() []domain.CreditPackage {
	packages := make([]domain.CreditPackage, len(creditTiers))
	for i, tier := range creditTiers {
		packages[i] = domain.CreditPackage{
			Credits: tier.Credits,
			Amount:  tier.Amount,
			Price:   MinorToMajor(tier.Amount),
		}
	}
	return packages
}

func MinorToMajor(amount int64) decimal.Decimal {
	return decimal.NewFromInt(amount).Div(decimal.NewFromInt(minorUnitsPerMajor))
}
