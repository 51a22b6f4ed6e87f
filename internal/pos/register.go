package pos

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrCheckoutInProgress is returned when a register is asked to change while a
// checkout it started has not finished.
var ErrCheckoutInProgress = errors.New("checkout already in progress")

// State is the checkout state of a register.
type State string

const (
	StateIdle       State = "Idle"
	StateSubmitting State = "Submitting"
	StateSucceeded  State = "Succeeded"
	StateFailed     State = "Failed"
)

// Attempt is the frozen view of a register taken when a checkout begins.
type Attempt struct {
	RegisterID     string
	IdempotencyKey uuid.UUID
	Cart           Cart
}

// Register is a single POS terminal: its cart and its checkout state.
// All methods are safe for concurrent use.
type Register struct {
	id string

	mu    sync.Mutex
	cart  Cart
	state State
	// key is reused by every retry of the same cart until a checkout succeeds.
	key uuid.UUID
}

func NewRegister(id string) *Register {
	return &Register{id: id, cart: Cart{}, state: StateIdle}
}

func (r *Register) ID() string { return r.id }

// Snapshot returns a copy of the cart and the current state.
func (r *Register) Snapshot() (Cart, State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cart.clone(), r.state
}

// AddLine adds item to the cart. ok is false when the item is unavailable.
func (r *Register) AddLine(item CatalogItem, note string) (line Line, ok bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StateSubmitting {
		return Line{}, false, ErrCheckoutInProgress
	}
	line, ok = r.cart.AddLine(item, note)
	if ok {
		r.key = uuid.Nil
	}
	return line, ok, nil
}

// RemoveLine removes the line at index. ok is false when index is out of range.
func (r *Register) RemoveLine(index int) (ok bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StateSubmitting {
		return false, ErrCheckoutInProgress
	}
	ok = r.cart.RemoveLine(index)
	if ok {
		r.key = uuid.Nil
	}
	return ok, nil
}

// Clear empties the cart without checking out.
func (r *Register) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StateSubmitting {
		return ErrCheckoutInProgress
	}
	r.cart = Cart{}
	r.key = uuid.Nil
	r.state = StateIdle
	return nil
}

// Begin moves the register to Submitting and freezes the cart. A non-nil key
// replaces the register's own; otherwise the key of the last unfinished
// attempt is reused, or a new one is minted.
func (r *Register) Begin(key uuid.UUID) (Attempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StateSubmitting {
		return Attempt{}, ErrCheckoutInProgress
	}
	switch {
	case key != uuid.Nil:
		r.key = key
	case r.key == uuid.Nil:
		r.key = uuid.New()
	}
	r.state = StateSubmitting
	return Attempt{RegisterID: r.id, IdempotencyKey: r.key, Cart: r.cart.clone()}, nil
}

// Succeed ends the attempt: the cart is emptied and the key discarded.
func (r *Register) Succeed() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cart = Cart{}
	r.key = uuid.Nil
	r.state = StateSucceeded
}

// Fail ends the attempt keeping the cart and key for a retry.
func (r *Register) Fail() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = StateFailed
}

// Reject ends an attempt whose key belongs to another checkout. The cart is
// kept and the key discarded so the next attempt gets a fresh one.
func (r *Register) Reject() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.key = uuid.Nil
	r.state = StateFailed
}

// Abort ends an attempt that made no writes.
func (r *Register) Abort() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = StateIdle
}

// Registry hands out registers by id, creating them on first use.
type Registry struct {
	mu        sync.Mutex
	registers map[string]*Register
}

func NewRegistry() *Registry {
	return &Registry{registers: make(map[string]*Register)}
}

func (g *Registry) Get(id string) *Register {
	g.mu.Lock()
	defer g.mu.Unlock()
	r, ok := g.registers[id]
	if !ok {
		r = NewRegister(id)
		g.registers[id] = r
	}
	return r
}
