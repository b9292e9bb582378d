package kvdb

const (
	DocumentsBucket = "documents"
	HistoryBucket   = "search_history"
	RequestsBucket  = "requests"
)

var defaultBuckets = []string{DocumentsBucket, HistoryBucket, RequestsBucket}

type DB interface {
	Set(bucket string, key string, value string) error
	Get(bucket string, key string) (string, error)
	Delete(bucket string, key string) error
	GetAllKeys(bucket string) ([]string, error)
	// ForEach visits keys in byte order. Returning an error stops the walk.
	ForEach(bucket string, fn func(key string, value string) error) error
	// ForEachReverse visits keys in reverse byte order.
	ForEachReverse(bucket string, fn func(key string, value string) error) error
	NextSequence(bucket string) (uint64, error)
	Count(bucket string) (int, error)
	Close() error
}
