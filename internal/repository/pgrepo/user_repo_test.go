package pgrepo

import (
	"testing"

	"github.com/fsdevblog/chartcredits/internal/domain"
	uowmocks "github.com/fsdevblog/chartcredits/pkg/uow/mocks"
	"github.com/golang/mock/gomock"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/suite"
)

// fakeRow реализация pgx.Row, возвращающая заданное значение или ошибку.
type fakeRow struct {
	value int64
	err   error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if p, ok := dest[0].(*int64); ok {
		*p = r.value
	}
	return nil
}

type UserRepositoryTestSuite struct {
	suite.Suite
	mockCtrl *gomock.Controller
	mockConn *uowmocks.MockDBTX
	repo     *UserRepository
}

func TestUserRepositorySuite(t *testing.T) {
	suite.Run(t, new(UserRepositoryTestSuite))
}

func (s *UserRepositoryTestSuite) SetupTest() {
	s.mockCtrl = gomock.NewController(s.T())
	s.mockConn = uowmocks.NewMockDBTX(s.mockCtrl)
	s.repo = NewUserRepository(s.mockConn)
}

func (s *UserRepositoryTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func (s *UserRepositoryTestSuite) TestIncrementCredits() {
	s.mockConn.EXPECT().QueryRow(gomock.Any(), userIncrementQuery, int64(1), int64(750)).
		Return(fakeRow{value: 755})

	credits, err := s.repo.IncrementCredits(s.T().Context(), 1, 750)
	s.Require().NoError(err)
	s.Equal(int64(755), credits)
}

func (s *UserRepositoryTestSuite) TestFindIDByEmail_NotFound() {
	s.mockConn.EXPECT().QueryRow(gomock.Any(), userFindIDByEmailQuery, "a@b.com").
		Return(fakeRow{err: pgx.ErrNoRows})

	_, err := s.repo.FindIDByEmail(s.T().Context(), "a@b.com")
	s.Require().ErrorIs(err, domain.ErrRecordNotFound)
}

func (s *UserRepositoryTestSuite) TestDecrementCredits() {
	cases := []struct {
		name       string
		decRow     fakeRow
		getRow     *fakeRow
		wantErr    error
		wantCredit int64
	}{
		{name: "ok", decRow: fakeRow{value: 4}, wantCredit: 4},
		{
			name:    "empty balance",
			decRow:  fakeRow{err: pgx.ErrNoRows},
			getRow:  &fakeRow{value: 0},
			wantErr: domain.ErrNotEnoughCredits,
		},
		{
			name:    "no user",
			decRow:  fakeRow{err: pgx.ErrNoRows},
			getRow:  &fakeRow{err: pgx.ErrNoRows},
			wantErr: domain.ErrRecordNotFound,
		},
		{
			name:    "storage error",
			decRow:  fakeRow{err: &pgconn.PgError{Code: "57014"}},
			wantErr: domain.ErrUnknown,
		},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			s.mockConn.EXPECT().QueryRow(gomock.Any(), userDecrementQuery, int64(1), int64(1)).Return(tc.decRow)
			if tc.getRow != nil {
				s.mockConn.EXPECT().QueryRow(gomock.Any(), userGetCreditsQuery, int64(1)).Return(*tc.getRow)
			}

			credits, err := s.repo.DecrementCredits(s.T().Context(), 1, 1)
			if tc.wantErr != nil {
				s.Require().ErrorIs(err, tc.wantErr)
				return
			}
			s.Require().NoError(err)
			s.Equal(tc.wantCredit, credits)
		})
	}
}
