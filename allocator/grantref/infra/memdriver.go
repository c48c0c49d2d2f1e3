package infra

import "sync"

// MemDriver é um domain.Driver simulado: uma "grant table" que existe só na
// memória do processo.
//
// Útil para testes e desenvolvimento local (cmd/grantd e cmd/poolsim usam
// ele). O driver real do hypervisor implementa a mesma interface em outro
// lugar; nada aqui depende de qual dos dois está por trás.
type MemDriver struct {
	mu sync.Mutex

	capacity int
	reserved int

	capacityErr error

	inits     int
	teardowns int
}

type MemDriverOption func(*MemDriver)

// WithCapacityErr faz Capacity falhar, para exercitar o caminho de erro da
// inicialização do pool.
func WithCapacityErr(err error) MemDriverOption {
	return func(d *MemDriver) { d.capacityErr = err }
}

func NewMemDriver(capacity, reserved int, opts ...MemDriverOption) *MemDriver {
	d := &MemDriver{capacity: capacity, reserved: reserved}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *MemDriver) Init() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.inits++
}

func (d *MemDriver) Teardown() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.teardowns++
}

func (d *MemDriver) Capacity() (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.capacityErr != nil {
		return 0, d.capacityErr
	}
	return d.capacity, nil
}

func (d *MemDriver) Reserved() (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.capacityErr != nil {
		return 0, d.capacityErr
	}
	return d.reserved, nil
}

// InitCount expõe quantas vezes Init rodou (o contrato é exatamente uma).
func (d *MemDriver) InitCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.inits
}

// TeardownCount expõe quantas vezes Teardown rodou.
func (d *MemDriver) TeardownCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.teardowns
}
