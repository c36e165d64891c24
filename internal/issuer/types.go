package issuer

// mintItemRequest is the body of POST /collections/{collection}/items
type mintItemRequest struct {
	Owner  string `json:"owner"`
	Phase  uint32 `json:"phase"`
	Number uint64 `json:"number"`
}

// MintedItem is the issuance service's answer for one unit
type MintedItem struct {
	TokenID string `json:"token_id"`
	Address string `json:"address,omitempty"` // item contract, if the service deploys one
	Number  uint64 `json:"number"`
}

type apiError struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
