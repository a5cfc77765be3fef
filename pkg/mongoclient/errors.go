package mongoclient

import "errors"

var (
	ErrFailedToConnect   = errors.New("failed to connect to mongo")
	ErrHealthcheckFailed = errors.New("mongo healthcheck failed")
	ErrCacheClosed       = errors.New("mongo client cache is closed")
)
