package utils

import (
	"testing"

	. "github.com/fulldump/biff"
)

func TestGetKeys(t *testing.T) {
	keys := GetKeys(map[string]int{"b": 2, "c": 3, "a": 1})
	AssertEqual(keys, []string{"a", "b", "c"})

	AssertEqual(GetKeys(map[string]bool{}), []string{})
}
