package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/fastfire9/empire-backend/internal/fuzzy"
	"github.com/fastfire9/empire-backend/internal/imagecheck"
	"github.com/fastfire9/empire-backend/internal/mailer"
	"github.com/fastfire9/empire-backend/internal/model"
	"github.com/fastfire9/empire-backend/internal/ocr"
	"github.com/fastfire9/empire-backend/internal/repository"
	"github.com/fastfire9/empire-backend/internal/textproc"
	"github.com/shopspring/decimal"
)

type Outcome string

const (
	OutcomeVerified  Outcome = "verified"
	OutcomeFlagged   Outcome = "flagged"
	OutcomeRejected  Outcome = "rejected"
	OutcomeDuplicate Outcome = "duplicate_submission"
	OutcomeExhausted Outcome = "no_credentials_available"
)

// VerificationResult is the single verdict rendered for one screenshot.
// Everything except infrastructure faults is a result, never an error.
type VerificationResult struct {
	Outcome      Outcome  `json:"outcome"`
	OrderID      uint64   `json:"orderId,omitempty"`
	BuyerToken   string   `json:"buyerToken,omitempty"`
	Score        int      `json:"score,omitempty"`
	FailedChecks []string `json:"failedChecks,omitempty"`
	Reason       string   `json:"reason,omitempty"`
}

type VerificationService interface {
	VerifyScreenshot(ctx context.Context, image []byte, mimeType string) (*VerificationResult, error)
}

// VerificationConfig carries the tunable constants of the pipeline. The
// thresholds are calibration parameters, not structural contracts.
type VerificationConfig struct {
	PaymentTag         string
	FallbackTags       []string
	CandidateThreshold int
	ConfidentThreshold int
	TagMatchThreshold  int
	EntropyCutoff      float64
	OwnerEmail         string
}

type verificationService struct {
	cfg      VerificationConfig
	engine   ocr.Engine
	orders   repository.OrderRepository
	products repository.ProductRepository
	hashes   repository.FlaggedHashRepository
	creds    CredentialService
	mail     mailer.Mailer

	normTag       string
	normFallbacks []string
}

func NewVerificationService(
	cfg VerificationConfig,
	engine ocr.Engine,
	orders repository.OrderRepository,
	products repository.ProductRepository,
	hashes repository.FlaggedHashRepository,
	creds CredentialService,
	mail mailer.Mailer,
) VerificationService {
	s := &verificationService{
		cfg:      cfg,
		engine:   engine,
		orders:   orders,
		products: products,
		hashes:   hashes,
		creds:    creds,
		mail:     mail,
		normTag:  textproc.Normalize(cfg.PaymentTag),
	}
	for _, tag := range cfg.FallbackTags {
		if t := textproc.Normalize(tag); t != "" {
			s.normFallbacks = append(s.normFallbacks, t)
		}
	}
	return s
}

func (s *verificationService) VerifyScreenshot(ctx context.Context, image []byte, mimeType string) (*VerificationResult, error) {
	hash := imagecheck.Hash(image)

	// Duplicate submissions short-circuit before OCR runs.
	dup, err := s.hashes.Exists(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("flagged hash lookup: %w", err)
	}
	if dup {
		return &VerificationResult{
			Outcome: OutcomeDuplicate,
			Reason:  "identical screenshot was previously flagged or rejected",
		}, nil
	}

	// A failed or timed-out OCR call is an infrastructure fault: no state
	// has been mutated and the caller may retry the whole upload.
	rawText, err := s.engine.ExtractText(ctx, image, mimeType)
	if err != nil {
		return nil, fmt.Errorf("ocr: %w", err)
	}

	integrity := imagecheck.Inspect(image, s.cfg.EntropyCutoff)
	norm := textproc.Normalize(rawText)
	candidates := textproc.BuyerTokenCandidates(norm)
	price := textproc.ExtractPrice(norm)

	live, err := s.orders.ListLive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list live orders: %w", err)
	}
	known := make([]string, 0, len(live))
	byToken := make(map[string]*model.Order, len(live))
	for i := range live {
		t := textproc.Normalize(live[i].BuyerToken)
		known = append(known, t)
		if _, ok := byToken[t]; !ok {
			byToken[t] = &live[i]
		}
	}

	match, ok := fuzzy.MatchBuyer(candidates, known, s.cfg.CandidateThreshold)
	if !ok {
		s.recordHash(ctx, hash)
		s.notifyOwner("Payment Screenshot Rejected",
			fmt.Sprintf("No pending order matched this screenshot.\n\nToken candidates:\n%s\n\nOCR text:\n%s",
				strings.Join(candidates, "\n"), rawText),
			image, mimeType)
		return &VerificationResult{
			Outcome: OutcomeRejected,
			Reason:  "no buyer token matched any pending order",
		}, nil
	}
	order := byToken[match.Token]

	product, err := s.products.FindByID(ctx, order.ProductID)
	if err != nil {
		return nil, fmt.Errorf("load product %d: %w", order.ProductID, err)
	}

	var failed []string
	if _, ok := fuzzy.MatchTag(norm, s.normTag, s.normFallbacks, s.cfg.TagMatchThreshold); !ok {
		failed = append(failed, "tag")
	}
	if !priceMatches(price, product.Price) {
		failed = append(failed, "price")
	}
	if integrity.Suspect {
		failed = append(failed, "image_integrity")
	}

	if match.Score >= s.cfg.ConfidentThreshold && len(failed) == 0 {
		if _, err := s.creds.FulfillOrder(ctx, order, product); err != nil {
			if errors.Is(err, ErrExhausted) {
				return &VerificationResult{
					Outcome:    OutcomeExhausted,
					OrderID:    order.ID,
					BuyerToken: order.BuyerToken,
					Score:      match.Score,
					Reason:     "payment verified but the credential pool is empty",
				}, nil
			}
			return nil, err
		}
		// A consumed screenshot may not be replayed against another order.
		s.recordHash(ctx, hash)
		log.Printf("[verify] outcome=verified order=%d score=%d", order.ID, match.Score)
		return &VerificationResult{
			Outcome:    OutcomeVerified,
			OrderID:    order.ID,
			BuyerToken: order.BuyerToken,
			Score:      match.Score,
		}, nil
	}

	// Low-confidence match, or a confident match with a failing check:
	// park the order for manual review.
	if err := model.ValidateTransition(order.Status, model.OrderStatusFlagged); err == nil {
		rows, uerr := s.orders.UpdateStatusIfCurrent(ctx, order.ID, order.Status, model.OrderStatusFlagged)
		if uerr != nil {
			return nil, fmt.Errorf("flag order %d: %w", order.ID, uerr)
		}
		if rows == 0 {
			return nil, ErrConflict
		}
	}
	s.recordHash(ctx, hash)
	s.notifyOwner("Payment Screenshot Flagged",
		fmt.Sprintf("Order %s (token %s) matched at score %d.\nFailing checks: %s\nExtracted price: %q (product price $%s)\n\nOCR text:\n%s",
			order.Reference, order.BuyerToken, match.Score, failedOrNone(failed), price, product.Price.StringFixed(2), rawText),
		image, mimeType)
	log.Printf("[verify] outcome=flagged order=%d score=%d failed=%v", order.ID, match.Score, failed)
	return &VerificationResult{
		Outcome:      OutcomeFlagged,
		OrderID:      order.ID,
		BuyerToken:   order.BuyerToken,
		Score:        match.Score,
		FailedChecks: failed,
		Reason:       "manual review required",
	}, nil
}

var oneCent = decimal.New(1, -2)

// priceMatches accepts amounts strictly within 0.01 of the product price;
// a difference of exactly one cent is rejected.
func priceMatches(extracted string, price decimal.Decimal) bool {
	if extracted == "" {
		return false
	}
	amt, err := decimal.NewFromString(extracted)
	if err != nil {
		return false
	}
	return price.Sub(amt).Abs().Cmp(oneCent) < 0
}

func (s *verificationService) recordHash(ctx context.Context, hash string) {
	if err := s.hashes.Insert(ctx, hash); err != nil {
		log.Printf("[verify] record flagged hash failed: %v", err)
	}
}

func (s *verificationService) notifyOwner(subject, body string, image []byte, mimeType string) {
	if s.cfg.OwnerEmail == "" {
		return
	}
	att := mailer.Attachment{Filename: "screenshot", MIMEType: mimeType, Data: image}
	if err := s.mail.Send(s.cfg.OwnerEmail, subject, body, att); err != nil {
		log.Printf("[mail] send failed to=%s subject=%q err=%v", s.cfg.OwnerEmail, subject, err)
	}
}

func failedOrNone(failed []string) string {
	if len(failed) == 0 {
		return "none (low-confidence token match)"
	}
	return strings.Join(failed, ", ")
}
