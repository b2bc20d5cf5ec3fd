package db

import (
	"context"
	"errors"
	"testing"

	"github.com/matryer/is"
)

func TestWrapErrorPassthrough(t *testing.T) {
	is := is.New(t)
	is.NoErr(WrapError(nil))
	e := errors.New("committee is closed")
	is.Equal(WrapError(e), e)
}

func TestWrapErrorNoRows(t *testing.T) {
	is := is.New(t)
	dbx := openTestDB(t)
	var name string
	err := dbx.GetContext(context.TODO(), &name, "SELECT name FROM committees WHERE id = ?", "unsc")
	is.Equal(WrapError(err), ErrRecordNotFound)
}

func TestWrapErrorDuplicateKey(t *testing.T) {
	is := is.New(t)
	dbx := openTestDB(t)
	_, err := dbx.Exec("INSERT INTO committees (id, name) VALUES ('unep', 'UNEP')")
	is.NoErr(err)

	// Same primary key.
	_, err = dbx.Exec("INSERT INTO committees (id, name) VALUES ('unep', 'Environment')")
	is.True(err != nil)
	is.Equal(WrapError(err), ErrDuplicateKey)

	// Same unique name.
	_, err = dbx.Exec("INSERT INTO committees (id, name) VALUES ('env', 'UNEP')")
	is.True(err != nil)
	is.Equal(WrapError(err), ErrDuplicateKey)

	// Other constraint failures are left alone.
	_, err = dbx.Exec("INSERT INTO committees (id, name) VALUES ('unsc', NULL)")
	is.True(err != nil)
	is.True(!errors.Is(WrapError(err), ErrDuplicateKey))
}
