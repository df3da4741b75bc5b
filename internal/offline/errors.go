package offline

import (
	"errors"

	"github.com/adoumouangnamouemmanuel/AfridemiQ-sub007/internal/codec"
)

var (
	ErrEmptyKey      = errors.New("cache key must not be empty")
	ErrEmptyToken    = errors.New("token must not be empty")
	ErrStorageRead   = errors.New("cache storage read failed")
	ErrStorageWrite  = errors.New("cache storage write failed")
	ErrStorageRemove = errors.New("cache storage remove failed")
	ErrStorageClear  = errors.New("cache storage clear failed")

	ErrSerialization = codec.ErrSerialization
	ErrDecode        = codec.ErrDecode
)
