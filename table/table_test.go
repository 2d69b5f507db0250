package table

import (
	"errors"
	"testing"

	. "github.com/fulldump/biff"
)

func TestNextIdentifier(t *testing.T) {
	tbl := New()
	AssertEqual(tbl.Index, int64(1))

	for expected := int64(1); expected <= 5; expected++ {
		id := tbl.NextIdentifier()
		AssertEqual(id, expected)
		tbl.Put(id, []byte{byte(id)})
	}
	AssertEqual(tbl.Index, int64(6))

	// deletes never give identifiers back
	AssertNil(tbl.Delete(5))
	AssertEqual(tbl.NextIdentifier(), int64(6))
}

func TestPutGetDelete(t *testing.T) {
	tbl := New()
	tbl.Put(1, []byte("one"))

	payload, err := tbl.Get(1)
	AssertNil(err)
	AssertEqual(string(payload), "one")

	tbl.Put(1, []byte("uno"))
	payload, _ = tbl.Get(1)
	AssertEqual(string(payload), "uno")
	AssertEqual(tbl.Len(), 1)

	_, err = tbl.Get(2)
	AssertTrue(errors.Is(err, ErrRecordNotFound))

	AssertNil(tbl.Delete(1))
	AssertTrue(errors.Is(tbl.Delete(1), ErrRecordNotFound))
	AssertFalse(tbl.Has(1))
}

func TestPut_KeepsIndexAhead(t *testing.T) {
	tbl := New()
	tbl.Put(7, []byte("seven"))
	AssertEqual(tbl.Index, int64(8))
}

func TestValues_Order(t *testing.T) {
	tbl := New()
	for _, name := range []string{"a", "b", "c", "d"} {
		tbl.Put(tbl.NextIdentifier(), []byte(name))
	}
	tbl.Delete(2)
	tbl.Put(1, []byte("A"))

	values := []string{}
	for _, v := range tbl.Values() {
		values = append(values, string(v))
	}
	AssertEqual(values, []string{"A", "c", "d"})
}

func TestClone(t *testing.T) {
	tbl := New()
	tbl.Put(tbl.NextIdentifier(), []byte("one"))

	clone := tbl.Clone()
	clone.Put(clone.NextIdentifier(), []byte("two"))
	clone.Put(1, []byte("uno"))

	AssertEqual(tbl.Len(), 1)
	AssertEqual(tbl.Index, int64(2))
	payload, _ := tbl.Get(1)
	AssertEqual(string(payload), "one")

	AssertEqual(clone.Len(), 2)
	AssertEqual(clone.Index, int64(3))
}
