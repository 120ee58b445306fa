package masterdata

import (
	"platform-service/internal/model"
	"platform-service/pkg/apperr"
)

// stockTransitions is the allowed status matrix for batches and serials.
// Stock moves forward only; the single way back into stock is a return of
// sold goods.
var stockTransitions = map[string][]string{
	model.StockStatusInStock:  {model.StockStatusOutStock, model.StockStatusExpired, model.StockStatusScrapped},
	model.StockStatusOutStock: {model.StockStatusSold, model.StockStatusScrapped},
	model.StockStatusExpired:  {model.StockStatusScrapped},
	model.StockStatusSold:     {model.StockStatusReturned},
	model.StockStatusReturned: {model.StockStatusInStock, model.StockStatusScrapped},
	model.StockStatusScrapped: nil,
}

// ValidStockStatus reports whether s is a known batch/serial status.
func ValidStockStatus(s string) bool {
	_, ok := stockTransitions[s]
	return ok
}

// CheckStockTransition validates a status change against the matrix.
func CheckStockTransition(from, to string) error {
	if !ValidStockStatus(to) {
		return apperr.Newf(apperr.KindValidation, "unknown stock status %q", to)
	}
	if !ValidStockStatus(from) {
		return apperr.Newf(apperr.KindValidation, "unknown stock status %q", from)
	}
	for _, allowed := range stockTransitions[from] {
		if allowed == to {
			return nil
		}
	}
	return apperr.Newf(apperr.KindIllegalTransition, "stock status cannot change from %q to %q", from, to)
}
