package inventory

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrUnknownProduct    = errors.New("product not found")
)

// InsufficientStockError names the product whose reservation failed.
type InsufficientStockError struct {
	ProductID   string
	ProductName string
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	name := e.ProductName
	if name == "" {
		name = e.ProductID
	}
	return fmt.Sprintf("insufficient stock for product %s (requested %d)", name, e.Requested)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// StockStore is the atomic stock primitive of the product store.
type StockStore interface {
	// DecrementStock subtracts qty only if the current stock is at least qty,
	// as a single conditional update. It reports whether the update applied;
	// a missing product is ErrUnknownProduct.
	DecrementStock(ctx context.Context, productID string, qty int) (bool, error)
	// IncrementStock adds qty unconditionally. A missing product is ErrUnknownProduct.
	IncrementStock(ctx context.Context, productID string, qty int) error
}

// Journal records applied movements. Implementations must be safe for concurrent use.
type Journal interface {
	Record(ctx context.Context, m Movement) error
}

// Line is one quantity of a product to reserve or release.
type Line struct {
	ProductID string
	Name      string
	Quantity  int
}

// Ledger is the single path through which stock is changed.
type Ledger struct {
	stock   StockStore
	journal Journal
	now     func() time.Time
}

// NewLedger creates a ledger over stock. journal may be nil.
func NewLedger(stock StockStore, journal Journal) *Ledger {
	return &Ledger{stock: stock, journal: journal, now: time.Now}
}

// Reserve atomically takes qty units of a product.
func (l *Ledger) Reserve(ctx context.Context, productID string, qty int) error {
	return l.reserve(ctx, "", Line{ProductID: productID, Quantity: qty})
}

// Release atomically returns qty units of a product. There is no upper bound.
func (l *Ledger) Release(ctx context.Context, productID string, qty int) error {
	return l.release(ctx, "", MovementReleased, Line{ProductID: productID, Quantity: qty})
}

// ReserveAll reserves every line in order. If any reservation fails, the lines
// already reserved by this call are released again before the error is returned.
func (l *Ledger) ReserveAll(ctx context.Context, ref string, lines []Line) error {
	for i, line := range lines {
		if err := l.reserve(ctx, ref, line); err != nil {
			if rbErr := l.rollback(ctx, ref, lines[:i]); rbErr != nil {
				log.Printf("[Inventory] Rollback for %s incomplete: %v", ref, rbErr)
				return errors.Join(err, rbErr)
			}
			return err
		}
	}
	return nil
}

// ReleaseAll releases every line, attempting all of them even after a failure.
func (l *Ledger) ReleaseAll(ctx context.Context, ref string, lines []Line) error {
	var errs []error
	for _, line := range lines {
		if err := l.release(ctx, ref, MovementReleased, line); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (l *Ledger) rollback(ctx context.Context, ref string, reserved []Line) error {
	var errs []error
	for i := len(reserved) - 1; i >= 0; i-- {
		if err := l.release(ctx, ref, MovementRolledBack, reserved[i]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (l *Ledger) reserve(ctx context.Context, ref string, line Line) error {
	if line.Quantity <= 0 {
		return ErrInvalidQuantity
	}

	ok, err := l.stock.DecrementStock(ctx, line.ProductID, line.Quantity)
	if err != nil {
		return fmt.Errorf("failed to reserve stock for %s: %w", line.ProductID, err)
	}
	if !ok {
		return &InsufficientStockError{
			ProductID:   line.ProductID,
			ProductName: line.Name,
			Requested:   line.Quantity,
		}
	}

	l.record(ctx, ref, MovementReserved, line)
	return nil
}

func (l *Ledger) release(ctx context.Context, ref string, kind MovementKind, line Line) error {
	if line.Quantity <= 0 {
		return ErrInvalidQuantity
	}

	if err := l.stock.IncrementStock(ctx, line.ProductID, line.Quantity); err != nil {
		return fmt.Errorf("failed to release stock for %s: %w", line.ProductID, err)
	}

	l.record(ctx, ref, kind, line)
	return nil
}

// record is best effort: the stock change has already been applied.
func (l *Ledger) record(ctx context.Context, ref string, kind MovementKind, line Line) {
	if l.journal == nil {
		return
	}
	m := Movement{
		ID:         uuid.New().String(),
		ProductID:  line.ProductID,
		Kind:       kind,
		Quantity:   line.Quantity,
		Ref:        ref,
		OccurredAt: l.now(),
	}
	if err := l.journal.Record(ctx, m); err != nil {
		log.Printf("[Inventory] Failed to journal %s of %d x %s: %v", kind, line.Quantity, line.ProductID, err)
	}
}
