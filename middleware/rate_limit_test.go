package middleware

import (
	"errors"
	"testing"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
)

func TestStorageResultMissIsNotAnError(t *testing.T) {
	val, err := storageResult(nil, redis.Nil)
	assert.NoError(t, err)
	assert.Nil(t, val)
}

func TestStorageResultPassesThroughValues(t *testing.T) {
	val, err := storageResult([]byte("7"), nil)
	assert.NoError(t, err)
	assert.Equal(t, []byte("7"), val)
}

func TestStorageResultPassesThroughErrors(t *testing.T) {
	boom := errors.New("connection refused")
	_, err := storageResult(nil, boom)
	assert.Equal(t, boom, err)
}
