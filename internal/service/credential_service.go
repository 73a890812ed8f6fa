package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/fastfire9/empire-backend/internal/mailer"
	"github.com/fastfire9/empire-backend/internal/model"
	"github.com/fastfire9/empire-backend/internal/repository"
)

type CredentialService interface {
	// Allocate claims one free slot for the product. Exactly-once under
	// concurrency: with K free slots, N concurrent calls yield K successes
	// and N-K ErrExhausted.
	Allocate(ctx context.Context, productID uint64) (*model.CredentialSlot, error)
	// FulfillOrder allocates a slot and removes the completed order in one
	// atomic unit, then mails the secret pair to the buyer (at-least-once).
	FulfillOrder(ctx context.Context, order *model.Order, product *model.Product) (*model.CredentialSlot, error)
	Provision(ctx context.Context, productID uint64, loginEmail, loginPass string) (*model.CredentialSlot, error)
	ListByProduct(ctx context.Context, productID uint64) ([]model.CredentialSlot, error)
}

type credentialService struct {
	creds      repository.CredentialRepository
	mail       mailer.Mailer
	ownerEmail string
}

func NewCredentialService(creds repository.CredentialRepository, mail mailer.Mailer, ownerEmail string) CredentialService {
	return &credentialService{creds: creds, mail: mail, ownerEmail: ownerEmail}
}

func (s *credentialService) Allocate(ctx context.Context, productID uint64) (*model.CredentialSlot, error) {
	claim, err := s.creds.ClaimFirstUnassigned(ctx, productID)
	if errors.Is(err, repository.ErrNoFreeSlot) {
		return nil, ErrExhausted
	}
	if err != nil {
		return nil, err
	}
	return claim.Slot, nil
}

func (s *credentialService) FulfillOrder(ctx context.Context, order *model.Order, product *model.Product) (*model.CredentialSlot, error) {
	if err := model.ValidateTransition(order.Status, model.OrderStatusCompleted); err != nil {
		return nil, err
	}
	claim, err := s.creds.ClaimAndCompleteOrder(ctx, product.ID, order.ID, order.Status)
	if errors.Is(err, repository.ErrNoFreeSlot) {
		s.send(s.ownerEmail, "Credential Restock Needed",
			fmt.Sprintf("All credentials for %q (ID %d) are assigned and order %s is waiting. Please restock.", product.Name, product.ID, order.Reference))
		return nil, ErrExhausted
	}
	if errors.Is(err, repository.ErrOrderMoved) {
		return nil, ErrConflict
	}
	if err != nil {
		return nil, err
	}

	// The claim is committed; mail failures here only delay the buyer, they
	// never un-assign the slot. Re-sending is acceptable.
	s.send(order.BuyerEmail, "Your Product Access Info",
		fmt.Sprintf("Thank you for your payment!\n\nProduct: %s\nLogin: %s\nPassword: %s\n\nEnjoy!", product.Name, claim.Slot.LoginEmail, claim.Slot.LoginPass))
	if claim.Remaining == 0 {
		s.send(s.ownerEmail, "Credential Restock Needed",
			fmt.Sprintf("The last credential for %q (ID %d) has just been assigned. Please restock.", product.Name, product.ID))
	}
	return claim.Slot, nil
}

func (s *credentialService) Provision(ctx context.Context, productID uint64, loginEmail, loginPass string) (*model.CredentialSlot, error) {
	if loginEmail == "" || loginPass == "" {
		return nil, errors.New("login email and password are required")
	}
	slot := &model.CredentialSlot{
		ProductID:  productID,
		LoginEmail: loginEmail,
		LoginPass:  loginPass,
	}
	if err := s.creds.Create(ctx, slot); err != nil {
		return nil, err
	}
	return slot, nil
}

func (s *credentialService) ListByProduct(ctx context.Context, productID uint64) ([]model.CredentialSlot, error) {
	return s.creds.ListByProduct(ctx, productID)
}

func (s *credentialService) send(to, subject, body string) {
	if to == "" {
		return
	}
	if err := s.mail.Send(to, subject, body); err != nil {
		log.Printf("[mail] send failed to=%s subject=%q err=%v", to, subject, err)
	}
}
