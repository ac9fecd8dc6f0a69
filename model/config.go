// model/config.go
package model

// ADConfig advertises directory availability to the frontend without leaking
// bind credentials.
type ADConfig struct {
	Available bool `json:"available"`
}

type ServerConfigResponse struct {
	Success  bool      `json:"success"`
	Servers  []string  `json:"servers"`
	ADConfig *ADConfig `json:"adConfig"`
}
