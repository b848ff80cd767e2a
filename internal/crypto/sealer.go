package crypto

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/mrlokans/khelo/internal/entities"
)

// ItemSealer is the encryption step of a drain. It seals the item payload
// after a simulated latency; the item itself is never modified and the
// ciphertext is handed to Sink, if set, and otherwise dropped.
type ItemSealer struct {
	enc     *Encryptor
	latency time.Duration

	// Sink receives the sealed payload of each item.
	Sink func(itemID string, sealed []byte)

	sealed atomic.Int64
}

func NewItemSealer(enc *Encryptor, latency time.Duration) *ItemSealer {
	return &ItemSealer{enc: enc, latency: latency}
}

// Encrypt implements syncengine.Encrypter.
func (s *ItemSealer) Encrypt(ctx context.Context, item entities.QueuedItem) error {
	if s.latency > 0 {
		timer := time.NewTimer(s.latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	sealed, err := s.enc.Seal(item.Payload, []byte(item.ID))
	if err != nil {
		return fmt.Errorf("seal item %s: %w", item.ID, err)
	}
	s.sealed.Add(1)
	if s.Sink != nil {
		s.Sink(item.ID, sealed)
	}
	return nil
}

// Sealed reports how many items have been sealed.
func (s *ItemSealer) Sealed() int64 {
	return s.sealed.Load()
}
