package sync

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	syncdomain "github.com/erp/bridge/internal/domain/sync"
)

// DocumentConfig carries the accounting coordinates every document is filed
// under.
type DocumentConfig struct {
	// CompanyCode is the accounting entity
	CompanyCode int
	// VoucherType is the document series for sales invoices
	VoucherType string
	// RevenueAccount receives the credit line
	RevenueAccount string
	// ReceivableAccount receives the debit line
	ReceivableAccount string
}

// credentialInvalidator is implemented by credential sources that can
// discard a cached token the ERP rejected early
type credentialInvalidator interface {
	Invalidate()
}

// DocumentService turns paid orders into accounting documents and cancelled
// orders into voids. The mapping store makes both operations idempotent.
type DocumentService struct {
	credentials syncdomain.CredentialSource
	accounting  syncdomain.AccountingGateway
	store       syncdomain.MappingStore
	config      DocumentConfig
	logger      *zap.Logger
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(
	credentials syncdomain.CredentialSource,
	accounting syncdomain.AccountingGateway,
	store syncdomain.MappingStore,
	config DocumentConfig,
	logger *zap.Logger,
) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentService{
		credentials: credentials,
		accounting:  accounting,
		store:       store,
		config:      config,
		logger:      logger.Named("documents"),
	}
}

// EnsureDocument creates the accounting document for a paid order exactly
// once. A redelivered event finds the stored mapping and returns it without
// any remote call; credential acquisition happens inside the builder so the
// short-circuit path stays network-free.
func (s *DocumentService) EnsureDocument(ctx context.Context, order *syncdomain.Order) (*syncdomain.OrderMapping, error) {
	if err := order.Validate(); err != nil {
		return nil, err
	}

	mapping, err := s.store.CreateIfAbsent(ctx, order.OrderID(), func(ctx context.Context) (*syncdomain.OrderMapping, error) {
		cred, err := s.credentials.Acquire(ctx)
		if err != nil {
			return nil, err
		}

		doc := s.buildDocument(order)
		refs, err := s.accounting.CreateDocuments(ctx, cred.Token, []syncdomain.AccountingDocument{doc})
		if err != nil {
			s.invalidateOnAuthFailure(err)
			return nil, err
		}
		if len(refs) != 1 {
			return nil, fmt.Errorf("%w: expected one reference, got %d", syncdomain.ErrInvalidResponse, len(refs))
		}

		documentID := refs[0].DocumentID
		return &syncdomain.OrderMapping{
			CompanyCode: s.config.CompanyCode,
			VoucherType: s.config.VoucherType,
			DocumentID:  &documentID,
		}, nil
	})
	if err != nil {
		s.logger.Error("document creation failed",
			zap.String("order_id", order.OrderID()),
			zap.String("order_name", order.Name),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("document ensured",
		zap.String("order_id", mapping.OrderID),
		zap.Stringp("document_id", mapping.DocumentID))
	return mapping, nil
}

// VoidDocument voids the accounting document of a cancelled order. An order
// the bridge never recorded is acknowledged without action; the mapping
// record itself is never touched.
func (s *DocumentService) VoidDocument(ctx context.Context, order *syncdomain.Order) error {
	if err := order.Validate(); err != nil {
		return err
	}

	mapping, ok := s.store.Get(order.OrderID())
	if !ok {
		s.logger.Info("cancel for unrecorded order, nothing to void",
			zap.String("order_id", order.OrderID()),
			zap.String("order_name", order.Name))
		return nil
	}

	if !mapping.HasDocument() {
		// The mapping was stored without a usable reference by an earlier
		// version of the bridge; there is nothing addressable to void
		s.logger.Warn("MAPPING HAS NO DOCUMENT REFERENCE, void skipped, manual reconciliation required",
			zap.String("order_id", order.OrderID()),
			zap.String("order_name", order.Name))
		return nil
	}

	cred, err := s.credentials.Acquire(ctx)
	if err != nil {
		return err
	}

	notes := fmt.Sprintf("order %s cancelled", order.Name)
	if order.CancelReason != "" {
		notes = fmt.Sprintf("%s: %s", notes, order.CancelReason)
	}

	err = s.accounting.VoidDocuments(ctx, cred.Token, []syncdomain.VoidRequest{
		{
			CompanyCode: mapping.CompanyCode,
			VoucherType: mapping.VoucherType,
			DocumentID:  *mapping.DocumentID,
			Notes:       notes,
		},
	})
	if err != nil {
		s.invalidateOnAuthFailure(err)
		s.logger.Error("document void failed",
			zap.String("order_id", order.OrderID()),
			zap.Stringp("document_id", mapping.DocumentID),
			zap.Error(err))
		return err
	}

	s.logger.Info("document voided",
		zap.String("order_id", order.OrderID()),
		zap.Stringp("document_id", mapping.DocumentID))
	return nil
}

// buildDocument translates a paid order into a balanced two-line document:
// credit the revenue account, debit the receivable account against the buyer.
func (s *DocumentService) buildDocument(order *syncdomain.Order) syncdomain.AccountingDocument {
	detail := fmt.Sprintf("order %s", order.Name)
	return syncdomain.AccountingDocument{
		CompanyCode: s.config.CompanyCode,
		VoucherType: s.config.VoucherType,
		Date:        order.CreatedAt,
		Notes:       detail,
		Lines: []syncdomain.DocumentLine{
			{
				Account:   s.config.RevenueAccount,
				Detail:    detail,
				Reference: order.Name,
				Credit:    order.TotalPrice,
			},
			{
				Account:   s.config.ReceivableAccount,
				Detail:    detail,
				Reference: order.Name,
				Debit:     order.TotalPrice,
				Party:     order.Customer.Email,
			},
		},
	}
}

func (s *DocumentService) invalidateOnAuthFailure(err error) {
	if inv, ok := s.credentials.(credentialInvalidator); ok && isAuthError(err) {
		inv.Invalidate()
	}
}
