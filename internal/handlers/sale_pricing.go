package handlers

import "errors"

var (
	errSalePriceRequired = errors.New("salePrice is required when saleEnabled is true")
	errSalePriceNotPos   = errors.New("salePrice must be greater than 0")
	errSalePriceTooHigh  = errors.New("salePrice must be less than price")
)

type saleUpdateInput struct {
	Price       *float64
	SaleEnabled *bool
	SalePrice   *float64
}

type saleUpdateResult struct {
	Price          float64
	SaleEnabled    bool
	SalePrice      float64
	SetSaleEnabled bool
	SetSalePrice   bool
}

func validateSaleFields(price float64, saleEnabled bool, salePrice float64, salePriceSet bool) error {
	if !saleEnabled {
		return nil
	}
	if !salePriceSet {
		return errSalePriceRequired
	}
	if salePrice <= 0 {
		return errSalePriceNotPos
	}
	if salePrice >= price {
		return errSalePriceTooHigh
	}
	return nil
}

// resolveSaleUpdate merges a partial price/sale change into the stored
// values. Turning the sale off clears the sale price.
func resolveSaleUpdate(existing saleUpdateResult, input saleUpdateInput) (saleUpdateResult, error) {
	result := saleUpdateResult{
		Price:       existing.Price,
		SaleEnabled: existing.SaleEnabled,
		SalePrice:   existing.SalePrice,
	}

	if input.Price != nil {
		result.Price = *input.Price
	}

	salePriceSet := existing.SalePrice > 0

	if input.SaleEnabled != nil {
		result.SaleEnabled = *input.SaleEnabled
		result.SetSaleEnabled = true
		if !*input.SaleEnabled {
			result.SalePrice = 0
			result.SetSalePrice = true
			salePriceSet = false
		}
	}

	if input.SalePrice != nil {
		result.SalePrice = *input.SalePrice
		result.SetSalePrice = true
		salePriceSet = true
	}

	if err := validateSaleFields(result.Price, result.SaleEnabled, result.SalePrice, salePriceSet); err != nil {
		return saleUpdateResult{}, err
	}
	return result, nil
}
