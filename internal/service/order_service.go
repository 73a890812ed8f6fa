package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/fastfire9/empire-backend/internal/mailer"
	"github.com/fastfire9/empire-backend/internal/model"
	"github.com/fastfire9/empire-backend/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrderService interface {
	Place(ctx context.Context, productID uint64, buyerEmail string) (*model.Order, error)
	Get(ctx context.Context, id uint64) (*model.Order, error)
	GetByReference(ctx context.Context, ref string) (*model.Order, error)
	List(ctx context.Context) ([]model.Order, error)
	// Accept invites payment: pending -> payment_pending plus an
	// instructions mail carrying the payment tag and the buyer token.
	Accept(ctx context.Context, id uint64) error
	// Decline mails the buyer and removes the order row.
	Decline(ctx context.Context, id uint64) error
	// Unflag is the explicit admin override flagged -> pending.
	Unflag(ctx context.Context, id uint64) error
}

type orderService struct {
	orders     repository.OrderRepository
	products   repository.ProductRepository
	mail       mailer.Mailer
	ownerEmail string
	paymentTag string
}

func NewOrderService(orders repository.OrderRepository, products repository.ProductRepository, mail mailer.Mailer, ownerEmail, paymentTag string) OrderService {
	return &orderService{orders: orders, products: products, mail: mail, ownerEmail: ownerEmail, paymentTag: paymentTag}
}

func (s *orderService) Place(ctx context.Context, productID uint64, buyerEmail string) (*model.Order, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	token, err := NewBuyerToken()
	if err != nil {
		return nil, err
	}
	order := &model.Order{
		Reference:  uuid.NewString(),
		ProductID:  product.ID,
		BuyerEmail: buyerEmail,
		BuyerToken: token,
		Status:     model.OrderStatusPending,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}

	s.send(s.ownerEmail, "New Order Received",
		fmt.Sprintf("Buyer: %s\nProduct: %s\nPrice: $%s\nOrder: %s\nToken: %s", buyerEmail, product.Name, product.Price.StringFixed(2), order.Reference, token))
	s.send(buyerEmail, "Order Confirmation",
		fmt.Sprintf("Thanks for your order!\n\nProduct: %s\nPrice: $%s\nOrder reference: %s\n\nYour buyer token is %s.\nWhen you pay, put this token in the payment note, then upload a screenshot of the payment on our site.",
			product.Name, product.Price.StringFixed(2), order.Reference, token))
	return order, nil
}

func (s *orderService) Get(ctx context.Context, id uint64) (*model.Order, error) {
	o, err := s.orders.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return o, err
}

func (s *orderService) GetByReference(ctx context.Context, ref string) (*model.Order, error) {
	o, err := s.orders.FindByReference(ctx, ref)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return o, err
}

func (s *orderService) List(ctx context.Context) ([]model.Order, error) {
	return s.orders.ListAll(ctx)
}

func (s *orderService) Accept(ctx context.Context, id uint64) error {
	order, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := model.ValidateTransition(order.Status, model.OrderStatusPaymentPending); err != nil {
		return err
	}
	rows, err := s.orders.UpdateStatusIfCurrent(ctx, order.ID, order.Status, model.OrderStatusPaymentPending)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrConflict
	}

	product, err := s.products.FindByID(ctx, order.ProductID)
	if err != nil {
		return err
	}
	s.send(order.BuyerEmail, "Next Step: Payment",
		fmt.Sprintf("Please send $%s to %s and put your buyer token %s in the payment note.\nThen upload a screenshot of the payment on our site. Your order will be completed once the payment is confirmed.",
			product.Price.StringFixed(2), s.paymentTag, order.BuyerToken))
	return nil
}

func (s *orderService) Decline(ctx context.Context, id uint64) error {
	order, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := model.ValidateTransition(order.Status, model.OrderStatusDeclined); err != nil {
		return err
	}
	rows, err := s.orders.DeleteIfStatus(ctx, order.ID, order.Status)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrConflict
	}
	s.send(order.BuyerEmail, "Order Declined",
		"Your order was declined (payment not received or product unavailable). Reply to this mail if you believe this is a mistake.")
	return nil
}

func (s *orderService) Unflag(ctx context.Context, id uint64) error {
	order, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := model.ValidateTransition(order.Status, model.OrderStatusPending); err != nil {
		return err
	}
	rows, err := s.orders.UpdateStatusIfCurrent(ctx, order.ID, order.Status, model.OrderStatusPending)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrConflict
	}
	return nil
}

func (s *orderService) send(to, subject, body string) {
	if to == "" {
		return
	}
	if err := s.mail.Send(to, subject, body); err != nil {
		log.Printf("[mail] send failed to=%s subject=%q err=%v", to, subject, err)
	}
}
