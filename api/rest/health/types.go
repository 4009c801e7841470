package health

type Response struct {
	Status     string `json:"status"`
	Service    string `json:"service"`
	Version    string `json:"version,omitempty"`
	Workspaces int    `json:"workspaces"`
}

type PingResponse struct {
	Message string `json:"message"`
}

// reports how many workspaces are live
type Counter interface {
	Count() int
}
