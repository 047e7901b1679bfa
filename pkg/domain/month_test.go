package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"fieldsafe/pkg/domain"
	dErrors "fieldsafe/pkg/domain-errors"
)

type MonthSuite struct {
	suite.Suite
}

func TestMonthSuite(t *testing.T) {
	suite.Run(t, new(MonthSuite))
}

func (s *MonthSuite) TestParseAcceptsWellFormed() {
	for _, in := range []string{"2026-01", "2026-12", "1999-06"} {
		m, err := domain.ParseMonth(in)
		s.Require().NoError(err, "input %q", in)
		s.Equal(in, m.String())
		s.True(m.Valid())
	}
}

func (s *MonthSuite) TestParseRejectsMalformed() {
	for _, in := range []string{"", "2026", "2026-13", "2026-00", "2026-1", "January 2026", "2026-01-15"} {
		_, err := domain.ParseMonth(in)
		s.Require().Error(err, "input %q", in)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	}
}

func (s *MonthSuite) TestMonthOf() {
	m := domain.MonthOf(time.Date(2026, time.March, 31, 23, 59, 0, 0, time.UTC))
	s.Equal(domain.Month("2026-03"), m)
	s.Equal(2026, m.Year())
}

func (s *MonthSuite) TestMonthsOfYearOrdered() {
	months := domain.MonthsOfYear(2026)
	s.Require().Len(months, 12)
	s.Equal(domain.Month("2026-01"), months[0])
	s.Equal(domain.Month("2026-12"), months[11])
	for i := 1; i < len(months); i++ {
		s.Less(months[i-1].String(), months[i].String())
	}
}

func (s *MonthSuite) TestYearOfInvalidMonthIsZero() {
	s.Equal(0, domain.Month("nonsense").Year())
	s.False(domain.Month("nonsense").Valid())
}
