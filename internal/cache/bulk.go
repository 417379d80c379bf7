// internal/cache/bulk.go
package cache

import (
	"context"
	"sync"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// FetchMultiple fetches addresses in chunks issued in parallel and stores every
// decoded result. A failed chunk or an undecodable account is logged and
// omitted; absent accounts are left uncached. Only context cancellation fails
// the whole batch.
func (c *Cache) FetchMultiple(ctx context.Context, addresses []solana.PublicKey) (map[string]*Record, error) {
	keys := dedupe(addresses)
	out := make(map[string]*Record, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Concurrency)

	for _, chunk := range chunkKeys(keys, c.opts.ChunkSize) {
		chunk := chunk
		g.Go(func() error {
			infos, err := c.accessor.GetMultipleAccounts(gctx, chunk)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				c.logger.Warn("Chunk fetch failed, omitting",
					zap.Int("size", len(chunk)),
					zap.Error(err))
				return nil
			}

			for i, info := range infos {
				if i >= len(chunk) || info == nil {
					continue
				}
				rec, err := c.Add(chunk[i], info)
				if err != nil {
					continue
				}
				mu.Lock()
				out[rec.Key()] = rec
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return out, err
	}

	c.logger.Debug("Bulk fetch complete",
		zap.Int("requested", len(keys)),
		zap.Int("stored", len(out)))
	return out, nil
}

// Missing returns the addresses that have no cached record.
func (c *Cache) Missing(addresses []solana.PublicKey) []solana.PublicKey {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []solana.PublicKey
	for _, a := range dedupe(addresses) {
		if _, ok := c.records[a.String()]; !ok {
			out = append(out, a)
		}
	}
	return out
}

func dedupe(addresses []solana.PublicKey) []solana.PublicKey {
	seen := make(map[solana.PublicKey]struct{}, len(addresses))
	out := make([]solana.PublicKey, 0, len(addresses))
	for _, a := range addresses {
		if a.IsZero() {
			continue
		}
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}

func chunkKeys(keys []solana.PublicKey, size int) [][]solana.PublicKey {
	var chunks [][]solana.PublicKey
	for start := 0; start < len(keys); start += size {
		end := start + size
		if end > len(keys) {
			end = len(keys)
		}
		chunks = append(chunks, keys[start:end])
	}
	return chunks
}
