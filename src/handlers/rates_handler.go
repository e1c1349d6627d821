package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/paulcha3/group4-BDM-case/src/models"
	"github.com/paulcha3/group4-BDM-case/src/processors"
	"github.com/paulcha3/group4-BDM-case/src/utils"
	"github.com/shopspring/decimal"
)

type RatesHandler struct {
	converter *processors.PriceConverter
	now       func() time.Time
}

func NewRatesHandler(converter *processors.PriceConverter) *RatesHandler {
	return &RatesHandler{converter: converter, now: time.Now}
}

type fallbackRatesResponse struct {
	Year  int                    `json:"year"`
	Rates []models.ReferenceRate `json:"rates"`
}

type convertResponse struct {
	Price    string                  `json:"price"`
	Currency string                  `json:"currency"`
	Date     string                  `json:"date"`
	Result   models.ConversionResult `json:"result"`
}

// HandleGetFallbackRates lists the static reference rates.
func (h *RatesHandler) HandleGetFallbackRates(w http.ResponseWriter, r *http.Request) {
	table := h.converter.Fallback()
	utils.SendJSON(w, fallbackRatesResponse{Year: table.Year(), Rates: table.Snapshot()}, http.StatusOK)
}

// HandleConvert validates a single price. Query: price, currency, optional date (defaults to today).
func (h *RatesHandler) HandleConvert(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	price, err := decimal.NewFromString(strings.TrimSpace(q.Get("price")))
	if err != nil {
		utils.SendJSONError(w, "price must be a decimal number", http.StatusBadRequest)
		return
	}
	currency := strings.ToUpper(strings.TrimSpace(q.Get("currency")))
	if currency == "" {
		utils.SendJSONError(w, "currency is required", http.StatusBadRequest)
		return
	}

	asOf := h.now().UTC()
	if v := q.Get("date"); v != "" {
		asOf, err = utils.ParseDate(v)
		if err != nil {
			utils.SendJSONError(w, "date is not a recognised date", http.StatusBadRequest)
			return
		}
	}

	res := h.converter.Convert(r.Context(), decimal.NewNullDecimal(price), currency, asOf)
	utils.SendJSON(w, convertResponse{
		Price:    price.String(),
		Currency: currency,
		Date:     asOf.Format(utils.DefaultDateFormat),
		Result:   res,
	}, http.StatusOK)
}
