package sync

import (
	"context"
	"time"

	"go.uber.org/zap"

	syncdomain "github.com/erp/bridge/internal/domain/sync"
)

// PullResult summarizes one polling run
type PullResult struct {
	// Changed is the number of changed items the ERP reported
	Changed int
	// Updated is the number of variants updated on the platform
	Updated int
	// SkippedUnknown counts items with no matching variant
	SkippedUnknown int
}

// ProductPullService copies ERP catalog changes back to the commerce
// platform. Each run asks the ERP for items changed since the persisted
// cursor, pushes price and absolute stock per item, and advances the cursor
// only when every item went through.
type ProductPullService struct {
	credentials syncdomain.CredentialSource
	accounting  syncdomain.AccountingGateway
	commerce    syncdomain.CommerceGateway
	cursors     syncdomain.CursorStore
	lookback    time.Duration
	now         func() time.Time
	logger      *zap.Logger
}

// NewProductPullService creates a new ProductPullService. lookback bounds
// the window of the very first run, before any cursor exists.
func NewProductPullService(
	credentials syncdomain.CredentialSource,
	accounting syncdomain.AccountingGateway,
	commerce syncdomain.CommerceGateway,
	cursors syncdomain.CursorStore,
	lookback time.Duration,
	logger *zap.Logger,
) *ProductPullService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductPullService{
		credentials: credentials,
		accounting:  accounting,
		commerce:    commerce,
		cursors:     cursors,
		lookback:    lookback,
		now:         time.Now,
		logger:      logger.Named("product-pull"),
	}
}

// Run executes one polling pass. The cursor stays put when anything fails,
// so the next pass replays the same window; every platform write is an
// absolute set and replaying is harmless.
func (s *ProductPullService) Run(ctx context.Context) (*PullResult, error) {
	started := s.now()

	since, ok, err := s.cursors.Get(ctx, syncdomain.CursorProductPull)
	if err != nil {
		return nil, err
	}
	if !ok {
		since = started.Add(-s.lookback)
	}

	cred, err := s.credentials.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	changed, err := s.accounting.ListChangedItems(ctx, cred.Token, since)
	if err != nil {
		if isAuthError(err) {
			if inv, ok := s.credentials.(credentialInvalidator); ok {
				inv.Invalidate()
			}
		}
		return nil, err
	}

	result := &PullResult{Changed: len(changed)}
	for i := range changed {
		if err := s.applyItem(ctx, &changed[i], result); err != nil {
			s.logger.Error("product pull aborted, cursor not advanced",
				zap.String("sku", changed[i].Code),
				zap.Int("updated", result.Updated),
				zap.Error(err))
			return result, err
		}
	}

	if err := s.cursors.Set(ctx, syncdomain.CursorProductPull, started); err != nil {
		return result, err
	}

	s.logger.Info("product pull completed",
		zap.Time("since", since),
		zap.Int("changed", result.Changed),
		zap.Int("updated", result.Updated),
		zap.Int("skipped_unknown", result.SkippedUnknown))
	return result, nil
}

// Execute runs one pass and discards the summary, satisfying the
// scheduler's executor contract
func (s *ProductPullService) Execute(ctx context.Context) error {
	_, err := s.Run(ctx)
	return err
}

// applyItem pushes one changed item's price and stock to the platform. An
// item the platform does not know is skipped; the ERP carries items that
// were never listed online.
func (s *ProductPullService) applyItem(ctx context.Context, item *syncdomain.ChangedItem, result *PullResult) error {
	variant, err := s.commerce.FindVariantBySKU(ctx, item.Code)
	if err != nil {
		if isVariantNotFound(err) {
			result.SkippedUnknown++
			s.logger.Warn("no variant for changed item, skipping", zap.String("sku", item.Code))
			return nil
		}
		return err
	}

	if !variant.Price.Equal(item.Price) {
		if err := s.commerce.UpdateVariantPrice(ctx, variant.ID, item.Price); err != nil {
			return err
		}
	}

	if err := s.commerce.SetInventoryLevel(ctx, variant.InventoryItemID, item.Stock); err != nil {
		return err
	}

	result.Updated++
	return nil
}
