package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"fieldsafe/pkg/domain"
	dErrors "fieldsafe/pkg/domain-errors"
)

type IDsSuite struct {
	suite.Suite
}

func TestIDsSuite(t *testing.T) {
	suite.Run(t, new(IDsSuite))
}

func (s *IDsSuite) TestParsePersonIDRejectsEmpty() {
	_, err := domain.ParsePersonID("")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *IDsSuite) TestParsePersonIDRejectsMalformed() {
	for _, in := range []string{"not-a-uuid", "123", "c56a4180-65aa-42ec-a945"} {
		_, err := domain.ParsePersonID(in)
		s.Require().Error(err, "input %q", in)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	}
}

func (s *IDsSuite) TestParsePersonIDRejectsNilUUID() {
	_, err := domain.ParsePersonID(uuid.Nil.String())
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *IDsSuite) TestParsePersonIDRoundTrip() {
	want := domain.NewPersonID()
	got, err := domain.ParsePersonID(want.String())
	s.Require().NoError(err)
	s.Equal(want, got)
	s.False(got.IsNil())
}

func (s *IDsSuite) TestParseWorksiteIDRejectsInvalid() {
	for _, in := range []string{"", "garbage", uuid.Nil.String()} {
		_, err := domain.ParseWorksiteID(in)
		s.Require().Error(err, "input %q", in)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	}
}

func (s *IDsSuite) TestParseWorksiteIDRoundTrip() {
	want := domain.NewWorksiteID()
	got, err := domain.ParseWorksiteID(want.String())
	s.Require().NoError(err)
	s.Equal(want, got)
}

func (s *IDsSuite) TestJSONRoundTrip() {
	id := domain.NewPersonID()

	data, err := json.Marshal(id)
	s.Require().NoError(err)
	s.Equal(`"`+id.String()+`"`, string(data))

	var back domain.PersonID
	s.Require().NoError(json.Unmarshal(data, &back))
	s.Equal(id, back)
}

func (s *IDsSuite) TestJSONNilIDIsEmptyString() {
	data, err := json.Marshal(domain.PersonID{})
	s.Require().NoError(err)
	s.Equal(`""`, string(data))

	var back domain.PersonID
	s.Require().NoError(json.Unmarshal(data, &back))
	s.True(back.IsNil())
}

func (s *IDsSuite) TestNewIDsAreDistinct() {
	s.NotEqual(domain.NewPersonID(), domain.NewPersonID())
	s.NotEqual(domain.NewWorksiteID(), domain.NewWorksiteID())
}
