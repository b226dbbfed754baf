package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fieldtoyou/fieldtoyou-backend/api/responses"
	"github.com/fieldtoyou/fieldtoyou-backend/api/validators"
	productsvc "github.com/fieldtoyou/fieldtoyou-backend/internal/products"
	pkgerrors "github.com/fieldtoyou/fieldtoyou-backend/pkg/errors"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/logger"
)

type createProductRequest struct {
	CategoryID       *string `json:"category_id,omitempty"`
	UnitLabelID      *string `json:"unit_label_id,omitempty"`
	Name             string  `json:"name" validate:"required"`
	Description      *string `json:"description,omitempty"`
	UnitSize         *string `json:"unit_size,omitempty"`
	PricePerUnit     string  `json:"price_per_unit" validate:"required"`
	Currency         string  `json:"currency,omitempty"`
	StockQuantity    string  `json:"stock_quantity,omitempty"`
	MinOrderQuantity *string `json:"min_order_quantity,omitempty"`
	MaxOrderQuantity *string `json:"max_order_quantity,omitempty"`
	IsOrganic        bool    `json:"is_organic,omitempty"`
	AvailableFrom    *string `json:"available_from,omitempty"`
	AvailableUntil   *string `json:"available_until,omitempty"`
	ImageURL         *string `json:"image_url,omitempty"`
}

// FarmerCreateProduct lists a new product under the authenticated farmer.
func FarmerCreateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		farmerID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toCreateInput(farmerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

func (req createProductRequest) toCreateInput(farmerID uuid.UUID) (productsvc.CreateInput, error) {
	price, err := parseAmount(req.PricePerUnit, "price_per_unit")
	if err != nil {
		return productsvc.CreateInput{}, err
	}

	stock := decimal.Zero
	if strings.TrimSpace(req.StockQuantity) != "" {
		stock, err = parseAmount(req.StockQuantity, "stock_quantity")
		if err != nil {
			return productsvc.CreateInput{}, err
		}
	}

	unitSize, err := parseOptionalAmount(req.UnitSize, "unit_size")
	if err != nil {
		return productsvc.CreateInput{}, err
	}
	minQty, err := parseOptionalAmount(req.MinOrderQuantity, "min_order_quantity")
	if err != nil {
		return productsvc.CreateInput{}, err
	}
	maxQty, err := parseOptionalAmount(req.MaxOrderQuantity, "max_order_quantity")
	if err != nil {
		return productsvc.CreateInput{}, err
	}

	categoryID, err := parseOptionalUUID(req.CategoryID, "category_id")
	if err != nil {
		return productsvc.CreateInput{}, err
	}
	unitLabelID, err := parseOptionalUUID(req.UnitLabelID, "unit_label_id")
	if err != nil {
		return productsvc.CreateInput{}, err
	}

	availableFrom, err := parseOptionalDate(req.AvailableFrom, "available_from")
	if err != nil {
		return productsvc.CreateInput{}, err
	}
	availableUntil, err := parseOptionalDate(req.AvailableUntil, "available_until")
	if err != nil {
		return productsvc.CreateInput{}, err
	}

	return productsvc.CreateInput{
		FarmerID:         farmerID,
		CategoryID:       categoryID,
		UnitLabelID:      unitLabelID,
		Name:             strings.TrimSpace(req.Name),
		Description:      req.Description,
		UnitSize:         unitSize,
		PricePerUnit:     price,
		Currency:         strings.TrimSpace(req.Currency),
		StockQuantity:    stock,
		MinOrderQuantity: minQty,
		MaxOrderQuantity: maxQty,
		IsOrganic:        req.IsOrganic,
		AvailableFrom:    availableFrom,
		AvailableUntil:   availableUntil,
		ImageURL:         req.ImageURL,
	}, nil
}

// ProductList is the public catalog listing.
func ProductList(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 25, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offset, err := validators.ParseQueryInt(r, "offset", 0, 0, 1_000_000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		query := r.URL.Query()
		filter := productsvc.ListFilter{
			ActiveOnly:  true,
			OrganicOnly: query.Get("organic") == "true",
			Search:      query.Get("search"),
			Limit:       limit,
			Offset:      offset,
		}

		if raw := strings.TrimSpace(query.Get("farmer_id")); raw != "" {
			farmerID, perr := uuid.Parse(raw)
			if perr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, perr, "invalid farmer id"))
				return
			}
			filter.FarmerID = &farmerID
		}
		if raw := strings.TrimSpace(query.Get("category_id")); raw != "" {
			categoryID, perr := uuid.Parse(raw)
			if perr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, perr, "invalid category id"))
				return
			}
			filter.CategoryID = &categoryID
		}
		if raw := strings.TrimSpace(query.Get("min_price")); raw != "" {
			minPrice, perr := parseAmount(raw, "min_price")
			if perr != nil {
				responses.WriteError(r.Context(), logg, w, perr)
				return
			}
			filter.MinPrice = &minPrice
		}
		if raw := strings.TrimSpace(query.Get("max_price")); raw != "" {
			maxPrice, perr := parseAmount(raw, "max_price")
			if perr != nil {
				responses.WriteError(r.Context(), logg, w, perr)
				return
			}
			filter.MaxPrice = &maxPrice
		}

		products, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, products)
	}
}

// ProductDetail returns one catalog listing.
func ProductDetail(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		id, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

type updateProductRequest struct {
	CategoryID       *string `json:"category_id,omitempty"`
	UnitLabelID      *string `json:"unit_label_id,omitempty"`
	Name             *string `json:"name,omitempty"`
	Description      *string `json:"description,omitempty"`
	UnitSize         *string `json:"unit_size,omitempty"`
	PricePerUnit     *string `json:"price_per_unit,omitempty"`
	Currency         *string `json:"currency,omitempty"`
	MinOrderQuantity *string `json:"min_order_quantity,omitempty"`
	MaxOrderQuantity *string `json:"max_order_quantity,omitempty"`
	IsActive         *bool   `json:"is_active,omitempty"`
	IsOrganic        *bool   `json:"is_organic,omitempty"`
	AvailableFrom    *string `json:"available_from,omitempty"`
	AvailableUntil   *string `json:"available_until,omitempty"`
	ImageURL         *string `json:"image_url,omitempty"`
}

// FarmerUpdateProduct edits a product the authenticated farmer owns.
func FarmerUpdateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		productID, _, err := ownedProduct(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toUpdateInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Update(r.Context(), productID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func (req updateProductRequest) toUpdateInput() (productsvc.UpdateInput, error) {
	price, err := parseOptionalAmount(req.PricePerUnit, "price_per_unit")
	if err != nil {
		return productsvc.UpdateInput{}, err
	}
	unitSize, err := parseOptionalAmount(req.UnitSize, "unit_size")
	if err != nil {
		return productsvc.UpdateInput{}, err
	}
	minQty, err := parseOptionalAmount(req.MinOrderQuantity, "min_order_quantity")
	if err != nil {
		return productsvc.UpdateInput{}, err
	}
	maxQty, err := parseOptionalAmount(req.MaxOrderQuantity, "max_order_quantity")
	if err != nil {
		return productsvc.UpdateInput{}, err
	}
	categoryID, err := parseOptionalUUID(req.CategoryID, "category_id")
	if err != nil {
		return productsvc.UpdateInput{}, err
	}
	unitLabelID, err := parseOptionalUUID(req.UnitLabelID, "unit_label_id")
	if err != nil {
		return productsvc.UpdateInput{}, err
	}
	availableFrom, err := parseOptionalDate(req.AvailableFrom, "available_from")
	if err != nil {
		return productsvc.UpdateInput{}, err
	}
	availableUntil, err := parseOptionalDate(req.AvailableUntil, "available_until")
	if err != nil {
		return productsvc.UpdateInput{}, err
	}

	return productsvc.UpdateInput{
		CategoryID:       categoryID,
		UnitLabelID:      unitLabelID,
		Name:             req.Name,
		Description:      req.Description,
		UnitSize:         unitSize,
		PricePerUnit:     price,
		Currency:         req.Currency,
		MinOrderQuantity: minQty,
		MaxOrderQuantity: maxQty,
		IsActive:         req.IsActive,
		IsOrganic:        req.IsOrganic,
		AvailableFrom:    availableFrom,
		AvailableUntil:   availableUntil,
		ImageURL:         req.ImageURL,
	}, nil
}

type adjustStockRequest struct {
	Delta string `json:"delta" validate:"required"`
}

// FarmerAdjustStock applies a manual stock correction to an owned product.
func FarmerAdjustStock(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		productID, _, err := ownedProduct(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload adjustStockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		delta, err := parseAmount(payload.Delta, "delta")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.AdjustStock(r.Context(), productID, delta)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// FarmerDeleteProduct removes a product the authenticated farmer owns.
func FarmerDeleteProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		productID, _, err := ownedProduct(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// FarmerLowStock lists the authenticated farmer's products running low.
func FarmerLowStock(svc productsvc.Service, defaultThreshold int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		farmerID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		threshold, err := validators.ParseQueryInt(r, "threshold", defaultThreshold, 1, 10_000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		products, err := svc.ListLowStock(r.Context(), decimal.NewFromInt(int64(threshold)))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		// low-stock scan is storewide; trim to the caller's listings
		mine := products[:0]
		for _, product := range products {
			if product.FarmerID == farmerID {
				mine = append(mine, product)
			}
		}
		responses.WriteSuccess(w, mine)
	}
}

// ownedProduct resolves the product in the path and checks the caller
// owns it.
func ownedProduct(r *http.Request, svc productsvc.Service) (uuid.UUID, uuid.UUID, error) {
	farmerID, err := authedUserID(r)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	productID, err := pathUUID(r, "productId")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	product, err := svc.Get(r.Context(), productID)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	if product.FarmerID != farmerID {
		return uuid.Nil, uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "product belongs to another farmer")
	}
	return productID, farmerID, nil
}

func parseOptionalUUID(raw *string, field string) (*uuid.UUID, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	parsed, err := uuid.Parse(strings.TrimSpace(*raw))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid identifier").
			WithDetails(map[string]any{"field": field})
	}
	return &parsed, nil
}

func parseOptionalDate(raw *string, field string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(*raw))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid timestamp").
			WithDetails(map[string]any{"field": field})
	}
	return &parsed, nil
}
