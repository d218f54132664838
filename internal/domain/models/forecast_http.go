package models

// Requests for forecast HTTP endpoints. Defined in domain for consistency and reuse.

type ForecastRequest struct {
	Ticker string `query:"ticker" json:"ticker" validate:"required,max=16,ticker"`
}

// LegacyForecastRequest is the body of the original /prever/ endpoint.
type LegacyForecastRequest struct {
	Ativo string `json:"ativo" validate:"required,max=16,ticker"`
}

// LegacyForecastResponse mirrors the original /prever/ response. Erros lists the
// predictors that failed under the isolate policy and is omitted when all succeed.
type LegacyForecastResponse struct {
	Ativos    string             `json:"ativos"`
	Previsoes map[string]float64 `json:"previsoes"`
	Erros     map[string]string  `json:"erros,omitempty"`
}

type FeaturesRequest struct {
	Ticker string `query:"ticker" json:"ticker" validate:"required,max=16,ticker"`
	Limit  int    `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=5000"`
}
