package service

import (
	"fmt"

	"github.com/fsdevblog/chartcredits/pkg/uow"
	"github.com/sirupsen/logrus"
)

type AppServices struct {
	PurchaseService *PurchaseService
	CreditService   *CreditService
	ChartService    *ChartService
}

// Factory собирает сервисы приложения. cache может быть nil.
func Factory(
	unitOfWork uow.UOW,
	cache ReferenceCache,
	completer Completer,
	l *logrus.Logger,
) (*AppServices, error) {
	purchaseService, purchaseServiceErr := NewPurchaseService(unitOfWork, cache, l)
	if purchaseServiceErr != nil {
		return nil, fmt.Errorf("service factory: %s", purchaseServiceErr.Error())
	}

	creditService, creditServiceErr := NewCreditService(unitOfWork)
	if creditServiceErr != nil {
		return nil, fmt.Errorf("service factory: %s", creditServiceErr.Error())
	}

	return &AppServices{
		PurchaseService: purchaseService,
		CreditService:   creditService,
		ChartService:    NewChartService(completer, creditService, l),
	}, nil
}
