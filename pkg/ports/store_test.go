package ports_test

import (
	"context"
	"slices"
	"testing"

	"github.com/aretw0/fluxgraph/pkg/domain"
	"github.com/aretw0/fluxgraph/pkg/ports"
	contract "github.com/aretw0/fluxgraph/pkg/ports/tests"
)

// MockStore is a map-backed ProjectStore. Projects are immutable, so it keeps pointers.
type MockStore struct {
	data map[string]*domain.Project
}

var _ ports.ProjectStore = (*MockStore)(nil)

func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[string]*domain.Project),
	}
}

func (m *MockStore) Save(_ context.Context, name string, p *domain.Project) error {
	m.data[name] = p
	return nil
}

func (m *MockStore) Load(_ context.Context, name string) (*domain.Project, error) {
	p, ok := m.data[name]
	if !ok {
		return nil, domain.ErrProjectNotFound
	}
	return p, nil
}

func (m *MockStore) Delete(_ context.Context, name string) error {
	delete(m.data, name)
	return nil
}

func (m *MockStore) List(context.Context) ([]string, error) {
	names := make([]string, 0, len(m.data))
	for name := range m.data {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

func TestProjectStore_Contract(t *testing.T) {
	contract.RunProjectStoreContract(t, NewMockStore())
}
