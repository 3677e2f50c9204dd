package phonepe

// payResponse is the upstream response envelope. The gateway is not
// consistent about nesting: some endpoints return the state at data.state,
// others at data.data.state, so both shapes are decoded and innerData
// resolves whichever is populated.
type payResponse struct {
	Success bool    `json:"success"`
	Code    string  `json:"code"`
	Message string  `json:"message"`
	Data    payData `json:"data"`
}

type payData struct {
	State              string             `json:"state"`
	TransactionID      string             `json:"transactionId"`
	InstrumentResponse instrumentResponse `json:"instrumentResponse"`
	Data               *innerPayData      `json:"data,omitempty"`
}

type innerPayData struct {
	State              string             `json:"state"`
	TransactionID      string             `json:"transactionId"`
	InstrumentResponse instrumentResponse `json:"instrumentResponse"`
}

type instrumentResponse struct {
	Type         string       `json:"type"`
	UTR          string       `json:"utr"`
	RedirectInfo redirectInfo `json:"redirectInfo"`
	IntentInfo   redirectInfo `json:"intentInfo"`
}

type redirectInfo struct {
	URL    string `json:"url"`
	Method string `json:"method"`
}

// RedirectURL returns the hosted page target, if any
func (r instrumentResponse) RedirectURL() string {
	return r.RedirectInfo.URL
}

// IntentURL returns the UPI deep link target, falling back to the redirect
// target when the gateway flattens the two
func (r instrumentResponse) IntentURL() string {
	if r.IntentInfo.URL != "" {
		return r.IntentInfo.URL
	}
	return r.RedirectInfo.URL
}

// innerData resolves the doubly-nested shape when present
func (p *payResponse) innerData() payData {
	if p.Data.Data != nil {
		return payData{
			State:              p.Data.Data.State,
			TransactionID:      p.Data.Data.TransactionID,
			InstrumentResponse: p.Data.Data.InstrumentResponse,
		}
	}
	return p.Data
}

// state returns the state string from whichever nesting level carries it
func (p *payResponse) state() string {
	if p.Data.Data != nil && p.Data.Data.State != "" {
		return p.Data.Data.State
	}
	return p.Data.State
}
