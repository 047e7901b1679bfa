package domain_test

import (
	"testing"

	"github.com/google/uuid"

	"fieldsafe/pkg/domain"
)

// FuzzParsePersonID checks that parsing never panics and that every
// accepted input round-trips through String.
func FuzzParsePersonID(f *testing.F) {
	f.Add("")
	f.Add("not-a-uuid")
	f.Add(uuid.Nil.String())
	f.Add(uuid.New().String())

	f.Fuzz(func(t *testing.T, in string) {
		id, err := domain.ParsePersonID(in)
		if err != nil {
			return
		}
		if id.IsNil() {
			t.Fatalf("accepted input %q produced nil id", in)
		}
		again, err := domain.ParsePersonID(id.String())
		if err != nil {
			t.Fatalf("round-trip of %q failed: %v", in, err)
		}
		if again != id {
			t.Fatalf("round-trip of %q changed value: %v != %v", in, again, id)
		}
	})
}

// FuzzParseIDsAgree checks that person and worksite IDs accept and reject
// the same raw inputs, since they share one validation path.
func FuzzParseIDsAgree(f *testing.F) {
	f.Add("")
	f.Add("zzzz")
	f.Add(uuid.New().String())

	f.Fuzz(func(t *testing.T, in string) {
		_, personErr := domain.ParsePersonID(in)
		_, worksiteErr := domain.ParseWorksiteID(in)
		if (personErr == nil) != (worksiteErr == nil) {
			t.Fatalf("parsers disagree on %q: person=%v worksite=%v", in, personErr, worksiteErr)
		}
	})
}
