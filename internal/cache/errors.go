package cache

import (
	"errors"

	"github.com/redis/go-redis/v9"
)

// ErrUnavailable is returned by operations that need Redis when none is configured.
var ErrUnavailable = errors.New("cache: redis unavailable")

func isNil(err error) bool {
	return errors.Is(err, redis.Nil)
}
