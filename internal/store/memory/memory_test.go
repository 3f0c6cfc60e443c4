package memory

import (
	"testing"

	"financepro/internal/store"
	"financepro/internal/store/storetest"
)

func TestMemoryStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return New()
	})
}
