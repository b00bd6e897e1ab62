package workflow

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/shopspring/decimal"

	"github.com/tair/stock-scanner/internal/inventory/domain"
)

var validate = validator.New()

func init() {
	// decimal.Decimal validates as a float so gte=0 and required work on money fields
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	_ = validate.RegisterValidation("notblank", validators.NotBlank)
	_ = validate.RegisterValidation("barcode", func(fl validator.FieldLevel) bool {
		return domain.IsValidBarcode(fl.Field().String())
	})

	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
}

// NewProductForm is entered for a barcode the catalog does not know. Numeric
// fields are pointers so a missing value is distinguishable from zero.
type NewProductForm struct {
	Name           string           `json:"name" validate:"required,notblank"`
	Price          *decimal.Decimal `json:"price" validate:"required,gte=0"`
	WholesalePrice *decimal.Decimal `json:"wholesale_price" validate:"required,gte=0"`
	Stock          *int             `json:"stock" validate:"required,gte=0"`
	StockThreshold *int             `json:"stock_threshold" validate:"required,gte=0"`
	Category       string           `json:"category" validate:"required,notblank"`
}

// RestockForm only carries the quantity to add; everything else is locked
type RestockForm struct {
	Quantity int `json:"quantity"`
}

// FullEditForm unlocks every attribute of an existing product
type FullEditForm struct {
	Barcode        string           `json:"barcode" validate:"required,barcode"`
	Name           string           `json:"name" validate:"required,notblank"`
	Price          *decimal.Decimal `json:"price" validate:"required,gte=0"`
	WholesalePrice *decimal.Decimal `json:"wholesale_price" validate:"required,gte=0"`
	Stock          *int             `json:"stock" validate:"required,gte=0"`
	StockThreshold *int             `json:"stock_threshold" validate:"required,gte=0"`
	Category       string           `json:"category" validate:"required,notblank"`
}

// FullEditFormFrom pre-fills a full edit with the product's current values
func FullEditFormFrom(p domain.Product) FullEditForm {
	price := p.Price
	wholesale := p.WholesalePrice
	stock := p.Stock
	threshold := p.StockThreshold
	return FullEditForm{
		Barcode:        p.Barcode,
		Name:           p.Name,
		Price:          &price,
		WholesalePrice: &wholesale,
		Stock:          &stock,
		StockThreshold: &threshold,
		Category:       p.Category,
	}
}

// Patch converts the form into a store patch
func (f FullEditForm) Patch() domain.ProductPatch {
	barcode := f.Barcode
	name := f.Name
	category := f.Category
	return domain.ProductPatch{
		Barcode:        &barcode,
		Name:           &name,
		Price:          f.Price,
		WholesalePrice: f.WholesalePrice,
		Stock:          f.Stock,
		StockThreshold: f.StockThreshold,
		Category:       &category,
	}
}

// validateForm runs the struct tags and converts failures into a domain
// validation error keyed by json field name
func validateForm(form interface{}) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.NewValidationError(map[string]string{"form": err.Error()})
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	return domain.NewValidationError(fields)
}
