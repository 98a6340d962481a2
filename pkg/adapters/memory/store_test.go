package memory_test

import (
	"testing"

	"github.com/aretw0/fluxgraph/pkg/adapters/memory"
	contract "github.com/aretw0/fluxgraph/pkg/ports/tests"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	contract.RunProjectStoreContract(t, store)
}
