package utils

import (
	"context"
	"sync"
	"time"

	"bitbucket.org/mmdatafocus/pos_backend/config"
)

var seqMutex sync.Mutex

// GetDocumentSequence returns the next sequence number for numbered documents
// sharing the given number prefix (e.g. "ORD-20250829-"). The counter lives in
// Redis keyed by the prefix and is seeded from the database count of existing
// rows carrying that prefix. Redis being down degrades to the DB count; the
// unique index on the number column remains the authority either way, so
// callers must still handle a duplicate-key conflict.
func GetDocumentSequence(ctx context.Context, table string, column string, prefix string) (int64, error) {
	seqMutex.Lock()
	defer seqMutex.Unlock()

	// Best-effort cross-instance lock; proceed anyway when not obtained.
	if locker := config.GetRedisLock(); locker != nil {
		if lock, err := locker.Obtain(ctx, "lock:seq:"+prefix, 5*time.Second, nil); err == nil {
			defer lock.Release(context.Background())
		}
	}

	cacheKey := "seq:" + prefix
	seqNo, err := config.GetRedisCounter(ctx, cacheKey)
	if err != nil {
		return 0, err
	}
	if seqNo <= 1 {
		// Fresh counter, or Redis unavailable: seed from the database.
		var count int64
		db := config.GetDB()
		if err := db.WithContext(ctx).Table(table).
			Where(column+" LIKE ?", prefix+"%").
			Count(&count).Error; err != nil {
			return 0, err
		}
		seqNo = count + 1
		if err := config.SetRedisObject(cacheKey, &seqNo, 48*time.Hour); err != nil {
			return 0, err
		}
	}
	return seqNo, nil
}

// ResetDocumentSequence drops the cached counter for a prefix. Called after a
// duplicate-number conflict so the next allocation reseeds from the database.
func ResetDocumentSequence(prefix string) error {
	return config.RemoveRedisKey("seq:" + prefix)
}
