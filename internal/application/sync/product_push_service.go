package sync

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	syncdomain "github.com/erp/bridge/internal/domain/sync"
)

func isAuthError(err error) bool {
	return errors.Is(err, syncdomain.ErrAuthFailed)
}

func isVariantNotFound(err error) bool {
	return errors.Is(err, syncdomain.ErrVariantNotFound)
}

// ProductPushService translates commerce product payloads into ERP catalog
// items. Only variants carrying a SKU cross over; the SKU is the shared key
// and a variant without one cannot be addressed on the ERP side.
type ProductPushService struct {
	credentials syncdomain.CredentialSource
	accounting  syncdomain.AccountingGateway
	logger      *zap.Logger
}

// NewProductPushService creates a new ProductPushService
func NewProductPushService(
	credentials syncdomain.CredentialSource,
	accounting syncdomain.AccountingGateway,
	logger *zap.Logger,
) *ProductPushService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductPushService{
		credentials: credentials,
		accounting:  accounting,
		logger:      logger.Named("product-push"),
	}
}

// PushProduct upserts the product's SKU-bearing variants as active catalog
// items. Returns the number of items submitted; zero means the payload had
// nothing addressable and no remote call was made.
func (s *ProductPushService) PushProduct(ctx context.Context, product *syncdomain.Product) (int, error) {
	return s.push(ctx, product, true)
}

// DeactivateProduct marks the product's SKU-bearing variants inactive in the
// ERP catalog. Items are never deleted remotely; deactivation preserves the
// sales history attached to them.
func (s *ProductPushService) DeactivateProduct(ctx context.Context, product *syncdomain.Product) (int, error) {
	return s.push(ctx, product, false)
}

func (s *ProductPushService) push(ctx context.Context, product *syncdomain.Product, active bool) (int, error) {
	items := s.translate(product, active)
	if len(items) == 0 {
		s.logger.Info("product has no variants with a SKU, nothing to sync",
			zap.String("product_id", product.ID.String()),
			zap.String("title", product.Title))
		return 0, nil
	}

	cred, err := s.credentials.Acquire(ctx)
	if err != nil {
		return 0, err
	}

	if err := s.accounting.UpsertItems(ctx, cred.Token, items); err != nil {
		if isAuthError(err) {
			if inv, ok := s.credentials.(credentialInvalidator); ok {
				inv.Invalidate()
			}
		}
		s.logger.Error("catalog upsert failed",
			zap.String("product_id", product.ID.String()),
			zap.Int("items", len(items)),
			zap.Error(err))
		return 0, err
	}

	s.logger.Info("catalog items upserted",
		zap.String("product_id", product.ID.String()),
		zap.Int("items", len(items)),
		zap.Bool("active", active))
	return len(items), nil
}

// translate maps variants to catalog items, skipping the SKU-less ones
func (s *ProductPushService) translate(product *syncdomain.Product, active bool) []syncdomain.CatalogItem {
	items := make([]syncdomain.CatalogItem, 0, len(product.Variants))
	for i := range product.Variants {
		variant := &product.Variants[i]
		if !variant.HasSKU() {
			s.logger.Debug("skipping variant without SKU",
				zap.String("product_id", product.ID.String()),
				zap.String("variant_id", variant.ID.String()))
			continue
		}
		items = append(items, syncdomain.CatalogItem{
			Code:        *variant.SKU,
			Description: itemDescription(product, variant),
			Price:       variant.Price,
			Active:      active,
			Ecommerce:   true,
		})
	}
	return items
}

// itemDescription combines product and variant titles; single-variant
// products repeat the product title as the variant title, which would read
// twice, so equal titles collapse to one.
func itemDescription(product *syncdomain.Product, variant *syncdomain.Variant) string {
	if variant.Title == "" || variant.Title == product.Title {
		return product.Title
	}
	return fmt.Sprintf("%s - %s", product.Title, variant.Title)
}
