package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fastfire9/empire-backend/internal/mailer"
	"github.com/fastfire9/empire-backend/internal/model"
	"github.com/fastfire9/empire-backend/internal/ocr"
	"github.com/fastfire9/empire-backend/internal/repository"
	"gorm.io/gorm"
)

// In-package fakes backed by maps and slices. The repository fakes mirror the
// guarded-update semantics of the real GORM implementations (RowsAffected
// checks, ErrNoFreeSlot, ErrOrderMoved) so the services see the same behavior.

var (
	_ repository.OrderRepository       = (*fakeOrderRepo)(nil)
	_ repository.ProductRepository     = (*fakeProductRepo)(nil)
	_ repository.CredentialRepository  = (*fakeCredentialRepo)(nil)
	_ repository.FlaggedHashRepository = (*fakeHashRepo)(nil)
	_ ocr.Engine                       = (*fakeEngine)(nil)
	_ mailer.Mailer                    = (*fakeMailer)(nil)
)

type sentMail struct {
	To          string
	Subject     string
	Body        string
	Attachments int
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *fakeMailer) Send(to, subject, body string, attachments ...mailer.Attachment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body, Attachments: len(attachments)})
	return nil
}

func (m *fakeMailer) bySubject(subject string) []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []sentMail
	for _, s := range m.sent {
		if s.Subject == subject {
			out = append(out, s)
		}
	}
	return out
}

type fakeEngine struct {
	text  string
	err   error
	calls int
}

func (e *fakeEngine) ExtractText(_ context.Context, _ []byte, _ string) (string, error) {
	e.calls++
	if e.err != nil {
		return "", e.err
	}
	return e.text, nil
}

type fakeOrderRepo struct {
	mu     sync.Mutex
	seq    uint64
	orders map[uint64]*model.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[uint64]*model.Order)}
}

func (r *fakeOrderRepo) Create(_ context.Context, o *model.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	o.ID = r.seq
	cp := *o
	r.orders[o.ID] = &cp
	return nil
}

func (r *fakeOrderRepo) FindByID(_ context.Context, id uint64) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *fakeOrderRepo) FindByReference(_ context.Context, ref string) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.Reference == ref {
			cp := *o
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeOrderRepo) ListAll(_ context.Context) ([]model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Order, 0, len(r.orders))
	for _, o := range r.orders {
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeOrderRepo) ListLive(_ context.Context) ([]model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Order
	for _, o := range r.orders {
		if o.Status.Live() {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeOrderRepo) UpdateStatusIfCurrent(_ context.Context, id uint64, from, to model.OrderStatus) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok || o.Status != from {
		return 0, nil
	}
	o.Status = to
	return 1, nil
}

func (r *fakeOrderRepo) DeleteIfStatus(_ context.Context, id uint64, status model.OrderStatus) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok || o.Status != status {
		return 0, nil
	}
	delete(r.orders, id)
	return 1, nil
}

func (r *fakeOrderRepo) status(id uint64) (model.OrderStatus, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return "", false
	}
	return o.Status, true
}

type fakeProductRepo struct {
	mu       sync.Mutex
	seq      uint64
	products map[uint64]*model.Product
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[uint64]*model.Product)}
}

func (r *fakeProductRepo) Create(_ context.Context, p *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	p.ID = r.seq
	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *fakeProductRepo) FindByID(_ context.Context, id uint64) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProductRepo) List(_ context.Context) ([]model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeProductRepo) Update(_ context.Context, p *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[p.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *fakeProductRepo) Delete(_ context.Context, id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.products, id)
	return nil
}

// fakeCredentialRepo reuses a fakeOrderRepo for the order-removal half of
// ClaimAndCompleteOrder so the conflict rollback is observable.
type fakeCredentialRepo struct {
	mu     sync.Mutex
	seq    uint64
	slots  []*model.CredentialSlot
	orders *fakeOrderRepo
}

func newFakeCredentialRepo(orders *fakeOrderRepo) *fakeCredentialRepo {
	return &fakeCredentialRepo{orders: orders}
}

func (r *fakeCredentialRepo) addSlots(productID uint64, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := 0; i < n; i++ {
		r.seq++
		r.slots = append(r.slots, &model.CredentialSlot{
			ID:         r.seq,
			ProductID:  productID,
			LoginEmail: "acct@example.com",
			LoginPass:  "pw",
		})
	}
}

func (r *fakeCredentialRepo) Create(_ context.Context, s *model.CredentialSlot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	s.ID = r.seq
	cp := *s
	r.slots = append(r.slots, &cp)
	return nil
}

func (r *fakeCredentialRepo) ListByProduct(_ context.Context, productID uint64) ([]model.CredentialSlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.CredentialSlot
	for _, s := range r.slots {
		if s.ProductID == productID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *fakeCredentialRepo) CountFree(_ context.Context, productID uint64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.countFreeLocked(productID), nil
}

func (r *fakeCredentialRepo) countFreeLocked(productID uint64) int64 {
	var n int64
	for _, s := range r.slots {
		if s.ProductID == productID && !s.Assigned {
			n++
		}
	}
	return n
}

func (r *fakeCredentialRepo) claimLocked(productID uint64) (*repository.Claim, error) {
	for _, s := range r.slots {
		if s.ProductID == productID && !s.Assigned {
			now := time.Now()
			s.Assigned = true
			s.AssignedAt = &now
			cp := *s
			return &repository.Claim{Slot: &cp, Remaining: r.countFreeLocked(productID)}, nil
		}
	}
	return nil, repository.ErrNoFreeSlot
}

func (r *fakeCredentialRepo) ClaimFirstUnassigned(_ context.Context, productID uint64) (*repository.Claim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.claimLocked(productID)
}

func (r *fakeCredentialRepo) ClaimAndCompleteOrder(ctx context.Context, productID, orderID uint64, orderStatus model.OrderStatus) (*repository.Claim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	claim, err := r.claimLocked(productID)
	if err != nil {
		return nil, err
	}
	rows, err := r.orders.DeleteIfStatus(ctx, orderID, orderStatus)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		// Roll the claim back, as the real transaction would.
		for _, s := range r.slots {
			if s.ID == claim.Slot.ID {
				s.Assigned = false
				s.AssignedAt = nil
			}
		}
		return nil, repository.ErrOrderMoved
	}
	return claim, nil
}

type fakeHashRepo struct {
	mu     sync.Mutex
	hashes map[string]time.Time
}

func newFakeHashRepo() *fakeHashRepo {
	return &fakeHashRepo{hashes: make(map[string]time.Time)}
}

func (r *fakeHashRepo) Insert(_ context.Context, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.hashes[hash]; !ok {
		r.hashes[hash] = time.Now()
	}
	return nil
}

func (r *fakeHashRepo) Exists(_ context.Context, hash string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.hashes[hash]
	return ok, nil
}

func (r *fakeHashRepo) PurgeOlderThan(_ context.Context, age time.Duration) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := time.Now().Add(-age)
	var n int64
	for h, at := range r.hashes {
		if at.Before(cutoff) {
			delete(r.hashes, h)
			n++
		}
	}
	return n, nil
}

func (r *fakeHashRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.hashes)
}
