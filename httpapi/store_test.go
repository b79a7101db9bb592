package httpapi

import (
	"context"
	"errors"

	"github.com/unkn0wn-root/resizecache/store"
)

type noStore struct{}

var errUnused = errors.New("store should not be called")

func (noStore) Exists(context.Context, string) (bool, error)      { return false, errUnused }
func (noStore) Get(context.Context, string) (store.Object, error) { return store.Object{}, errUnused }
func (noStore) Put(context.Context, string, store.Object) error   { return errUnused }
