package service

import (
	"testing"

	"github.com/fsdevblog/chartcredits/internal/domain"
	"github.com/fsdevblog/chartcredits/internal/repository/repoargs"
	"github.com/fsdevblog/chartcredits/internal/service/mocks"
	"github.com/fsdevblog/chartcredits/pkg/uow"
	uowmocks "github.com/fsdevblog/chartcredits/pkg/uow/mocks"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/suite"
)

type CreditServiceTestSuite struct {
	suite.Suite
	mockCtrl     *gomock.Controller
	mockUOW      *uowmocks.MockUOW
	mockUserRepo *mocks.MockUserRepository
	service      *CreditService
}

func TestCreditServiceSuite(t *testing.T) {
	suite.Run(t, new(CreditServiceTestSuite))
}

func (s *CreditServiceTestSuite) SetupTest() {
	s.mockCtrl = gomock.NewController(s.T())
	s.mockUOW = uowmocks.NewMockUOW(s.mockCtrl)
	s.mockUserRepo = mocks.NewMockUserRepository(s.mockCtrl)

	s.mockUOW.EXPECT().
		GetRepository(uow.RepositoryName(repoargs.UserRepoName)).
		Return(s.mockUserRepo, nil).AnyTimes()

	var err error
	s.service, err = NewCreditService(s.mockUOW)
	s.Require().NoError(err)
}

func (s *CreditServiceTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func (s *CreditServiceTestSuite) TestGetBalance() {
	s.mockUserRepo.EXPECT().GetCredits(gomock.Any(), int64(1)).Return(int64(42), nil)
	s.mockUserRepo.EXPECT().GetCredits(gomock.Any(), int64(2)).Return(int64(0), domain.ErrRecordNotFound)

	credits, err := s.service.GetBalance(s.T().Context(), 1)
	s.Require().NoError(err)
	s.Equal(int64(42), credits)

	_, err = s.service.GetBalance(s.T().Context(), 2)
	s.Require().ErrorIs(err, domain.ErrUserNotFound)
}

func (s *CreditServiceTestSuite) TestSpend() {
	cases := []struct {
		name    string
		repoRes int64
		repoErr error
		wantErr error
	}{
		{name: "ok", repoRes: 4},
		{name: "empty balance", repoErr: domain.ErrNotEnoughCredits, wantErr: domain.ErrNotEnoughCredits},
		{name: "no user", repoErr: domain.ErrRecordNotFound, wantErr: domain.ErrUserNotFound},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			s.mockUserRepo.EXPECT().DecrementCredits(gomock.Any(), int64(1), int64(1)).Return(tc.repoRes, tc.repoErr)

			credits, err := s.service.Spend(s.T().Context(), 1, 1)
			if tc.wantErr != nil {
				s.Require().ErrorIs(err, tc.wantErr)
				return
			}
			s.Require().NoError(err)
			s.Equal(tc.repoRes, credits)
		})
	}
}

func (s *CreditServiceTestSuite) TestSpend_NonPositive() {
	_, err := s.service.Spend(s.T().Context(), 1, 0)
	s.Require().ErrorIs(err, domain.ErrInvalidPayload)
}

func (s *CreditServiceTestSuite) TestRefund() {
	s.mockUserRepo.EXPECT().IncrementCredits(gomock.Any(), int64(1), int64(1)).Return(int64(5), nil)

	credits, err := s.service.Refund(s.T().Context(), 1, 1)
	s.Require().NoError(err)
	s.Equal(int64(5), credits)

	_, err = s.service.Refund(s.T().Context(), 1, -1)
	s.Require().ErrorIs(err, domain.ErrInvalidPayload)
}
